package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/codec"
	"github.com/hupe1980/vecfield/mapping"
)

// maxLineBytes bounds a single JSONL document.
const maxLineBytes = 16 << 20

type parseResult struct {
	Line   int       `json:"line"`
	ID     uint32    `json:"id"`
	Status string    `json:"status"`
	Vector []float32 `json:"vector,omitempty"`
	Error  string    `json:"error,omitempty"`
	Class  string    `json:"class,omitempty"`
}

type parseReport struct {
	Field   string        `json:"field"`
	Parsed  int           `json:"parsed"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Results []parseResult `json:"results"`
}

func newParseCmd(root *rootFlags) *cobra.Command {
	var (
		mappingPath string
		fieldName   string
		docsPath    string
		registry    registryFlags
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse vector values of a JSONL document file",
		Long: `Parse the value of one vector field for every line of a JSONL file.
Each line is an object {"id": n, "<field>": value}. Missing and null values
are skipped.

Fields that reference a model look the model up in the selected registry.
Exits with code 2 when any document fails.`,
		Example: `  vecfield parse --mapping mapping.json --field embedding --docs docs.jsonl
  vecfield parse --mapping mapping.json --field embedding --docs docs.jsonl --models-sqlite models.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			reg, closeRegistry, err := registry.registry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeRegistry() }()

			var opts []vecfield.Option
			if reg != nil {
				opts = append(opts, vecfield.WithRegistry(reg))
			}
			mapper, err := newMapper(cmd, root, opts...)
			if err != nil {
				return err
			}

			field, err := compileField(mapper, mappingPath, fieldName)
			if err != nil {
				return err
			}

			f, err := os.Open(docsPath)
			if err != nil {
				return err
			}
			defer f.Close()

			report := parseReport{Field: fieldName, Results: []parseResult{}}
			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
			line := 0
			for scanner.Scan() {
				line++
				if len(scanner.Bytes()) == 0 {
					continue
				}
				res := parseResult{Line: line}

				doc, err := codec.DecodeNode(codec.Default, scanner.Bytes())
				if err != nil {
					res.Status = "failed"
					res.Error = err.Error()
					report.Failed++
					report.Results = append(report.Results, res)
					continue
				}
				if id, ok := doc["id"].(float64); ok {
					res.ID = uint32(id)
				}

				v, ok, err := mapper.Parse(ctx, field, doc[fieldName])
				switch {
				case err != nil:
					res.Status = "failed"
					res.Error = err.Error()
					res.Class = vecfield.Classify(err).String()
					report.Failed++
				case !ok:
					res.Status = "skipped"
					report.Skipped++
				default:
					res.Status = "parsed"
					res.Vector = v.Float32s()
					report.Parsed++
				}
				report.Results = append(report.Results, res)
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			if err := outputJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return validationFailed(fmt.Sprintf("%d documents failed", report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "Mapping JSON file")
	cmd.Flags().StringVar(&fieldName, "field", "", "Vector field to parse")
	cmd.Flags().StringVar(&docsPath, "docs", "", "JSONL document file")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("docs")
	registry.register(cmd)
	return cmd
}

// compileField compiles one named vector field of a mapping file. A field
// that fails to compile is a validation failure.
func compileField(mapper *vecfield.Mapper, mappingPath, name string) (*mapping.Field, error) {
	doc, err := loadMapping(mappingPath)
	if err != nil {
		return nil, err
	}
	reports, err := mapper.CompileMapping(doc)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.Name != name {
			continue
		}
		if r.Err != nil {
			return nil, validationFailed(r.Err.Error())
		}
		return r.Field, nil
	}
	return nil, fmt.Errorf("mapping has no vector field [%s]", name)
}
