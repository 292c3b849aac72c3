package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/planfold/plotd/internal/export"
	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/render"
)

var exportCmd = &cobra.Command{
	Use:     "export <diagram-type> <target>",
	Short:   "Export a diagram to a downloadable file",
	GroupID: "diagrams",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := model.DiagramKind(args[0])
		if !kind.IsValid() {
			return fmt.Errorf("unknown diagram type %q", args[0])
		}
		target := args[1]

		formatStr, _ := cmd.Flags().GetString("format")
		format := model.Format(formatStr)
		if !format.IsValid() {
			return fmt.Errorf("unknown format %q", formatStr)
		}
		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("name")
		params, _ := cmd.Flags().GetStringToString("param")
		seed, _ := cmd.Flags().GetInt64("seed")

		ctx := context.Background()
		req := &model.DiagramRequest{
			Kind:       kind,
			Target:     target,
			Format:     model.FormatJSON,
			Parameters: params,
		}
		exporter := export.NewExporter()

		var result export.Result
		switch format {
		case model.FormatPDF:
			// PDF bytes come straight from the backend.
			req.Format = model.FormatPDF
			payload, err := diagramClient.ExportDiagram(ctx, req)
			if err != nil {
				return renderErrorWithRemedy(err)
			}
			result = export.Result{
				Success:  true,
				Filename: export.Filename(name, kind, format, time.Now()),
				Data:     payload.Data,
			}
		default:
			resp, err := diagramClient.GenerateDiagram(ctx, req)
			if err != nil {
				return renderErrorWithRemedy(err)
			}
			scene, report, err := render.Render(kind, resp.Data, render.Options{Seed: seed})
			if err != nil {
				return err
			}
			printDropped(report.Dropped)

			switch format {
			case model.FormatSVG:
				result = exporter.SVG(scene.SVG(), name, kind)
			case model.FormatPNG:
				result = exporter.PNG(scene, scene.SVG(), name, kind)
			default:
				result = exporter.JSON(resp.Data, name, kind)
			}
		}

		if !result.Success {
			return fmt.Errorf("export failed: %w", result.Err)
		}
		path, err := export.WriteFile(dir, result)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(result.Data))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "svg", "export format (svg, png, pdf, or json)")
	exportCmd.Flags().String("dir", ".", "output directory")
	exportCmd.Flags().String("name", "", "project name used in the filename")
	exportCmd.Flags().StringToString("param", nil, "filter parameters (key=value)")
	exportCmd.Flags().Int64("seed", 0, "layout seed (0 = random)")
}
