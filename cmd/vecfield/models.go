package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecfield/codec"
	"github.com/hupe1980/vecfield/model"
)

// lister is implemented by registries that can enumerate their models.
type lister interface {
	List(ctx context.Context) ([]string, error)
}

func newModelsCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage model metadata in a registry",
		Long: `Store, inspect and remove the metadata of trained models referenced by
vector fields through "model_id".

Exactly one registry backend flag must be given.`,
	}
	cmd.AddCommand(
		newModelsPutCmd(root),
		newModelsGetCmd(root),
		newModelsDeleteCmd(root),
		newModelsListCmd(root),
	)
	return cmd
}

// withStore opens the selected registry for the duration of fn.
func withStore(ctx context.Context, r *registryFlags, fn func(model.Store) error) error {
	store, closeStore, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	if store == nil {
		return errors.New("no model registry selected")
	}
	return fn(store)
}

func newModelsPutCmd(_ *rootFlags) *cobra.Command {
	var (
		file     string
		registry registryFlags
	)
	cmd := &cobra.Command{
		Use:     "put",
		Short:   "Store model metadata from a JSON file",
		Example: `  vecfield models put --file model.json --models-sqlite models.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var m model.Metadata
			if err := codec.Default.Unmarshal(data, &m); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if m.State == "" {
				m.State = model.StateCreated
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = time.Now().UTC()
			}
			if err := m.Validate(); err != nil {
				return validationFailed(err.Error())
			}
			return withStore(cmd.Context(), &registry, func(s model.Store) error {
				if err := s.Put(cmd.Context(), m); err != nil {
					return err
				}
				return outputJSON(cmd.OutOrStdout(), m)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Model metadata JSON file")
	_ = cmd.MarkFlagRequired("file")
	registry.register(cmd)
	return cmd
}

func newModelsGetCmd(_ *rootFlags) *cobra.Command {
	var registry registryFlags
	cmd := &cobra.Command{
		Use:   "get <model_id>",
		Short: "Print model metadata",
		Long: `Print the metadata of a model. Exits with code 2 when the model is not
ready for ingestion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), &registry, func(s model.Store) error {
				m, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := outputJSON(cmd.OutOrStdout(), m); err != nil {
					return err
				}
				if err := m.Ready(); err != nil {
					return validationFailed(err.Error())
				}
				return nil
			})
		},
	}
	registry.register(cmd)
	return cmd
}

func newModelsDeleteCmd(_ *rootFlags) *cobra.Command {
	var registry registryFlags
	cmd := &cobra.Command{
		Use:   "delete <model_id>",
		Short: "Remove model metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), &registry, func(s model.Store) error {
				return s.Delete(cmd.Context(), args[0])
			})
		},
	}
	registry.register(cmd)
	return cmd
}

func newModelsListCmd(_ *rootFlags) *cobra.Command {
	var registry registryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List model ids",
		Long:  `List model ids. Supported by the blob and SQLite registries.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), &registry, func(s model.Store) error {
				l, ok := s.(lister)
				if !ok {
					return errors.New("registry does not support listing")
				}
				ids, err := l.List(cmd.Context())
				if err != nil {
					return err
				}
				if ids == nil {
					ids = []string{}
				}
				return outputJSON(cmd.OutOrStdout(), ids)
			})
		},
	}
	registry.register(cmd)
	return cmd
}
