package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Haiqian-MA/PyXRD/internal/config"
	"github.com/Haiqian-MA/PyXRD/models"
	"github.com/Haiqian-MA/PyXRD/models/persist"
	"github.com/Haiqian-MA/PyXRD/models/store"
)

// app is the state shared by all commands, set up before any of them runs.
type app struct {
	configPath string
	logLevel   string
	format     string
	storePath  string
	classFiles []string

	cfg      config.Config
	log      *slog.Logger
	registry *models.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "pyxrd-models",
		Short:        "Inspect PyXRD model classes and object documents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.format, "format", "", "document format (json, yaml)")
	flags.StringVar(&a.storePath, "store", "", "badger store directory")
	flags.StringArrayVar(&a.classFiles, "classes", nil, "class definition file, may be repeated")

	root.AddCommand(
		newClassesCmd(a),
		newCheckCmd(a),
		newImportCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.format != "" {
		cfg.Format = a.format
	}
	if a.storePath != "" {
		cfg.StorePath = a.storePath
	}
	cfg.ClassFiles = append(cfg.ClassFiles, a.classFiles...)
	a.cfg = cfg

	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))

	a.registry = models.NewRegistry()
	for _, path := range cfg.ClassFiles {
		if err := a.loadClasses(path); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) loadClasses(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open class file")
	}
	defer f.Close()

	classes, err := a.registry.LoadClasses(f)
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	a.log.Debug("classes loaded", "file", path, "count", len(classes))
	return nil
}

func (a *app) documentFormat(path string) (persist.Format, error) {
	if a.format == "" {
		switch {
		case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
			return persist.YAML, nil
		case strings.HasSuffix(path, ".json"):
			return persist.JSON, nil
		}
	}
	return persist.ParseFormat(a.cfg.Format)
}

func (a *app) readDocument(path string) (persist.Document, error) {
	f, err := a.documentFormat(path)
	if err != nil {
		return persist.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return persist.Document{}, errors.Wrap(err, "read document")
	}
	return persist.Unmarshal(data, f)
}

func (a *app) openStore() (*store.BadgerStore, error) {
	if a.cfg.StorePath == "" {
		return nil, errors.New("no store configured, use --store or store_path")
	}
	return store.OpenBadger(store.Config{Path: a.cfg.StorePath, SyncWrites: true, Logger: a.log})
}

func newClassesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes [name...]",
		Short: "List registered classes and their derived property lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = a.registry.Names()
			}
			return printClasses(cmd.OutOrStdout(), a.registry, names)
		},
	}
}

type classSummary struct {
	Name  string            `yaml:"name"`
	Bases []string          `yaml:"bases,omitempty"`
	Lists models.ClassLists `yaml:"lists"`
}

func printClasses(w io.Writer, reg *models.Registry, names []string) error {
	summaries := make([]classSummary, 0, len(names))
	for _, name := range names {
		c, err := reg.Get(name)
		if err != nil {
			return err
		}
		s := classSummary{Name: c.Name(), Lists: c.Lists()}
		for _, b := range c.Bases() {
			s.Bases = append(s.Bases, b.Name())
		}
		summaries = append(summaries, s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(summaries); err != nil {
		return err
	}
	return enc.Close()
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <document>",
		Short: "Decode a document and report unresolved references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			pool := models.NewPool(models.WithLogger(a.log))
			d := persist.NewDecoder(a.registry, pool)
			d.Logger = a.log

			objs := make([]*models.Object, 0, len(doc.Objects))
			for i, rec := range doc.Objects {
				o, err := d.Decode(rec)
				if err != nil {
					return errors.Wrapf(err, "object %d", i)
				}
				objs = append(objs, o)
			}
			unresolved := persist.ResolveReferences(pool, a.log, objs...)
			fmt.Fprintf(cmd.OutOrStdout(), "%d objects, %d registered, %d unresolved references\n",
				len(objs), pool.Len(), unresolved)
			runtime.KeepAlive(objs)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <document>",
		Short: "Decode a document and save its objects in the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			d := persist.NewDecoder(a.registry, models.NewPool(models.WithLogger(a.log)))
			d.Logger = a.log
			objs, err := d.DecodeDocument(doc)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := store.Save(cmd.Context(), s, objs...); err != nil {
				return err
			}
			a.log.Info("imported", "objects", len(objs), "store", a.cfg.StorePath)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every object in the store as one document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := persist.ParseFormat(a.cfg.Format)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			d := persist.NewDecoder(a.registry, models.NewPool(models.WithLogger(a.log)))
			d.Logger = a.log
			objs, err := store.Load(cmd.Context(), s, d)
			if err != nil {
				return err
			}
			data, err := persist.Marshal(persist.Encode(objs...), f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
