package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/gitsource"
	"github.com/localnerve/recalldb/internal/services"
	"github.com/localnerve/recalldb/internal/types"
	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"
)

const usage = `usage: recalldb <command> [flags] [args]

commands:
  load <path|git-url>...      load document files, directories or git repositories
  tidy                        sweep the store
  query cards|notes [filter]  list live cards or notes matching a search filter
  history <card-id>           list retired generations of a card
  mnemonic <card-id> [text]   print a card's mnemonic, or replace it with text
  tag <card-id> <tag>         toggle a tag on a card ("marked" flags it)
  delete-model <model-id>     tombstone a model and its templates
  export                      write the live store as one document

Run 'recalldb <command> --help' for the flags of a command.
`

// command is one subcommand. flags registers its own flags next to the configuration flags.
type command struct {
	flags func(fs *pflag.FlagSet)
	run   func(ctx context.Context, env *env, args []string) error
}

// env is what a command runs against
type env struct {
	cfg   *config.Config
	store *services.Store
	fs    *pflag.FlagSet
	out   io.Writer
}

var commands = map[string]command{
	"load":         {flags: loadFlags, run: runLoad},
	"tidy":         {run: runTidy},
	"query":        {flags: queryFlags, run: runQuery},
	"history":      {run: runHistory},
	"mnemonic":     {flags: mnemonicFlags, run: runMnemonic},
	"tag":          {run: runTag},
	"delete-model": {run: runDeleteModel},
	"export":       {flags: exportFlags, run: runExport},
}

// run executes one command line and returns the process exit code
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(out, usage)
		return 0
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n\n%s", name, usage)
		return 2
	}

	fs := pflag.NewFlagSet("recalldb "+name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	config.RegisterFlags(fs)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	slog.SetDefault(cfg.Logger())

	store, err := services.Open(cfg)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer store.Close()

	if err := cmd.run(ctx, &env{cfg: cfg, store: store, fs: fs, out: out}, fs.Args()); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			return 2
		}
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadFlags(fs *pflag.FlagSet) {
	fs.Bool("strict", false, "exit non-zero when any note fails to render")
	fs.Bool("compile", false, "create cards for every template and note pair the documents touch")
}

func runLoad(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("load needs at least one path or git url")
	}

	docs := make([]*document.Document, 0, len(args))
	for _, src := range args {
		path := src
		if gitsource.IsURL(src) {
			path = gitsource.LocalPath(e.cfg.ReposDir, src)
			if err := gitsource.Sync(ctx, src, path); err != nil {
				return err
			}
		}

		doc, files, err := document.ReadPath(path)
		if err != nil {
			return err
		}
		slog.Info("documents read", "source", src, "files", len(files))
		docs = append(docs, doc)
	}

	var opts []services.LoadOption
	if compile, _ := e.fs.GetBool("compile"); compile {
		opts = append(opts, services.CompileCards())
	}

	result, err := e.store.Load(ctx, document.Merge(docs...), opts...)
	if err != nil {
		return err
	}
	if err := writeJSON(e.out, result); err != nil {
		return err
	}

	if strict, _ := e.fs.GetBool("strict"); strict && len(result.Failed) > 0 {
		return fmt.Errorf("%d notes failed to render: %s", len(result.Failed), strings.Join(result.FailedNotes(), ", "))
	}
	return nil
}

func runTidy(ctx context.Context, e *env, _ []string) error {
	report, err := e.store.Tidy(ctx)
	if err != nil {
		return err
	}
	return writeJSON(e.out, report)
}

func queryFlags(fs *pflag.FlagSet) {
	fs.StringSlice("ids", nil, "only entities related to these ids")
	fs.Int("limit", 0, "maximum number of results, 0 for all")
	fs.Int("offset", 0, "number of results to skip")
}

func runQuery(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("query needs 'cards' or 'notes'")
	}
	ids, _ := e.fs.GetStringSlice("ids")
	limit, _ := e.fs.GetInt("limit")
	offset, _ := e.fs.GetInt("offset")
	filter := strings.Join(args[1:], " ")

	switch args[0] {
	case "cards":
		views, err := e.store.QueryCards(ctx, services.CardQuery{Filter: filter, IDs: ids, Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		return writeJSON(e.out, views)
	case "notes":
		views, err := e.store.QueryNotes(ctx, services.NoteQuery{Filter: filter, IDs: ids, Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		return writeJSON(e.out, views)
	}
	return fmt.Errorf("query needs 'cards' or 'notes', got %q", args[0])
}

func runHistory(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("history needs one card id")
	}
	history, err := e.store.CardHistory(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(e.out, history)
}

func mnemonicFlags(fs *pflag.FlagSet) {
	fs.Bool("clear", false, "remove the mnemonic")
}

func runMnemonic(ctx context.Context, e *env, args []string) error {
	clearing, _ := e.fs.GetBool("clear")
	switch {
	case len(args) == 1 && !clearing:
		mnemonic, err := e.store.Mnemonic(ctx, args[0])
		if err != nil {
			return fmt.Errorf("card %s: %w", args[0], err)
		}
		_, err = fmt.Fprintln(e.out, mnemonic)
		return err
	case len(args) == 1 && clearing:
		return e.store.SetMnemonic(ctx, args[0], "")
	case len(args) > 1 && !clearing:
		return e.store.SetMnemonic(ctx, args[0], strings.Join(args[1:], " "))
	}
	return errors.New("mnemonic needs one card id, then optional text or --clear")
}

func runTag(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return errors.New("tag needs one card id and one tag")
	}
	present, err := e.store.ToggleTag(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("card %s: %w", args[0], err)
	}
	return writeJSON(e.out, map[string]interface{}{"id": args[0], "tag": args[1], "present": present})
}

func runDeleteModel(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("delete-model needs one model id")
	}
	if err := e.store.DeleteModel(ctx, args[0]); err != nil {
		return fmt.Errorf("model %s: %w", args[0], err)
	}
	return nil
}

func exportFlags(fs *pflag.FlagSet) {
	fs.StringP("out", "o", "", "file to write, replaced atomically; stdout when empty")
}

func runExport(ctx context.Context, e *env, _ []string) error {
	doc, err := e.store.Export(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return err
	}

	path, _ := e.fs.GetString("out")
	if path == "" {
		_, err := e.out.Write(buf.Bytes())
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	slog.Info("exported", "path", path, "models", len(doc.Model), "notes", len(doc.Note), "cards", len(doc.Card))
	return nil
}
