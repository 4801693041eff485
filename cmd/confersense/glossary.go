package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/tui"
	"github.com/spf13/cobra"
)

const fetchTimeout = 30 * time.Second

func glossaryCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the keyword glossary",
	}
	cmd.AddCommand(
		glossaryListCmd(g),
		glossaryAddCmd(g),
		glossaryUpdateCmd(g),
		glossaryRemoveCmd(g),
		glossaryExtractCmd(g),
	)
	return cmd
}

// openStore opens the configured glossary. The memory backend only lives
// inside the daemon, so edits made here would vanish.
func (g *globals) openStore() (glossary.Store, *config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Glossary.Backend == glossary.BackendMemory {
		log.Printf("glossary: memory backend selected; changes made by this command are not kept")
	}
	store, err := glossary.Open(cfg.Glossary.Backend, cfg.Glossary.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// scopeFlags registers --source/--target, defaulting to the configured pair
type scopeFlags struct {
	source, target string
}

func (s *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.source, "source", "", "source language code or * (default: configured source)")
	cmd.Flags().StringVar(&s.target, "target", "", "target language code or * (default: configured target)")
}

func (s *scopeFlags) resolve(cfg *config.Config) (string, string) {
	source, target := s.source, s.target
	if source == "" {
		source = cfg.General.SourceLanguage
	}
	if target == "" {
		target = cfg.General.TargetLanguage
	}
	return source, target
}

func glossaryListCmd(g *globals) *cobra.Command {
	var (
		source, target string
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List glossary entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []glossary.Entry
			if source != "" || target != "" {
				entries, err = store.Lookup(cmd.Context(), source, target)
			} else {
				entries, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []glossary.Entry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			fmt.Fprint(out, tui.RenderGlossary(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "only entries for this source language (plus wildcards)")
	cmd.Flags().StringVar(&target, "target", "", "only entries for this target language (plus wildcards)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func glossaryAddCmd(g *globals) *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   "add [term] [translation]",
		Short: "Add a glossary entry (interactive without arguments)",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			source, target := scope.resolve(cfg)
			var e glossary.Entry
			switch len(args) {
			case 0:
				e, err = tui.GlossaryEntryForm(source, target)
				if err != nil {
					return err
				}
			case 1:
				e = glossary.Entry{Term: args[0], SourceLang: source, TargetLang: target}
			default:
				e = glossary.Entry{Term: args[0], Replacement: args[1], SourceLang: source, TargetLang: target}
			}

			added, err := store.Add(cmd.Context(), e)
			if err != nil {
				return fmt.Errorf("failed to add entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s => %s (%s->%s)\n",
				added.ID, added.Term, added.Replacement, added.SourceLang, added.TargetLang)
			return nil
		},
	}
	scope.register(cmd)
	return cmd
}

func glossaryUpdateCmd(g *globals) *cobra.Command {
	var term, translation, source, target string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a glossary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch glossary.Patch
			flags := cmd.Flags()
			if flags.Changed("term") {
				patch.Term = &term
			}
			if flags.Changed("translation") {
				patch.Replacement = &translation
			}
			if flags.Changed("source") {
				patch.SourceLang = &source
			}
			if flags.Changed("target") {
				patch.TargetLang = &target
			}
			if patch == (glossary.Patch{}) {
				return errors.New("nothing to update: pass --term, --translation, --source or --target")
			}

			store, _, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s => %s (%s->%s)\n",
				e.ID, e.Term, e.Replacement, e.SourceLang, e.TargetLang)
			return nil
		},
	}
	cmd.Flags().StringVar(&term, "term", "", "new term")
	cmd.Flags().StringVar(&translation, "translation", "", "new translation")
	cmd.Flags().StringVar(&source, "source", "", "new source language code or *")
	cmd.Flags().StringVar(&target, "target", "", "new target language code or *")
	return cmd
}

func glossaryRemoveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a glossary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to remove %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func glossaryExtractCmd(g *globals) *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract keywords from a web page into the glossary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := llm.NewClient(cfg.ToLLMConfig())
			if err != nil {
				return err
			}

			source, target := scope.resolve(cfg)
			httpClient := &http.Client{Timeout: fetchTimeout}
			added, err := glossary.Import(cmd.Context(), store, httpClient, client, args[0], source, target)
			if err != nil {
				return fmt.Errorf("failed to extract keywords: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "added %d entries for %s->%s\n", len(added), source, target)
			fmt.Fprint(out, tui.RenderGlossary(added))
			return nil
		},
	}
	scope.register(cmd)
	return cmd
}
