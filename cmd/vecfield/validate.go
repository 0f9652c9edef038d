package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/internal/api"
)

type validateReport struct {
	Valid  bool            `json:"valid"`
	Fields []api.FieldJSON `json:"fields"`
}

func newValidateCmd(root *rootFlags) *cobra.Command {
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compile every vector field of a mapping",
		Long: `Compile every vector field under "properties" of a mapping file and print
a JSON report with the resolved variant, dimension and storage of each field.

Exits with code 2 when any field fails to compile.`,
		Example: `  vecfield validate --mapping mapping.json --settings index.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mapper, err := newMapper(cmd, root)
			if err != nil {
				return err
			}
			doc, err := loadMapping(mappingPath)
			if err != nil {
				return err
			}
			reports, err := mapper.CompileMapping(doc)
			if err != nil {
				return err
			}

			out := validateReport{Valid: true, Fields: make([]api.FieldJSON, 0, len(reports))}
			failed := 0
			for _, r := range reports {
				if r.Err != nil {
					out.Valid = false
					failed++
				}
				out.Fields = append(out.Fields, api.NewFieldJSON(r))
			}
			if err := outputJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if failed > 0 {
				return validationFailed(fmt.Sprintf("%d of %d fields failed to compile", failed, len(reports)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "Mapping JSON file")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}

// newMapper builds a mapper from the root flags plus opts.
func newMapper(cmd *cobra.Command, root *rootFlags, opts ...vecfield.Option) (*vecfield.Mapper, error) {
	logger, err := root.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s, err := root.settings()
	if err != nil {
		return nil, err
	}
	base := []vecfield.Option{vecfield.WithLogger(logger)}
	if s != nil {
		base = append(base, vecfield.WithSettings(s))
	}
	return vecfield.New(append(base, opts...)...), nil
}
