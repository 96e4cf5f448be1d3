package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/starford/metacrate/internal"
	"github.com/starford/metacrate/internal/crate"
	"github.com/starford/metacrate/internal/form"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan, color.Bold)
)

// withWorkspace opens the configured workspace for the duration of fn.
// Logs go to stderr so stdout carries only command output.
func withWorkspace(ctx context.Context, cmd *cli.Command, fn func(*internal.Workspace) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	ws, err := internal.OpenWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() != n {
		return fmt.Errorf("%s: expected %d argument(s): %s", cmd.Name, n, cmd.ArgsUsage)
	}
	return nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Build the RO-Crate document for the workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Workspace-relative file to write", Value: crate.MetadataFile},
			&cli.BoolFlag{Name: "stdout", Usage: "Print the document instead of writing it"},
			&cli.BoolFlag{Name: "push", Usage: "Also push the document to the ingestion endpoint"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
				svc := ws.Service
				if missing := svc.MissingRequired(); len(missing) > 0 {
					warnColor.Fprintf(os.Stderr, "warning: required fields empty: %s\n", strings.Join(missing, ", "))
				}

				var data []byte
				if cmd.Bool("stdout") {
					doc, err := svc.Export(ctx)
					if err != nil {
						return err
					}
					if data, err = doc.Encode(); err != nil {
						return err
					}
					_, _ = os.Stdout.Write(data)
				} else {
					var err error
					if data, err = svc.WriteExport(ctx, cmd.String("output")); err != nil {
						return err
					}
					okColor.Printf("wrote %s (%d bytes)\n", cmd.String("output"), len(data))
				}

				if cmd.Bool("push") {
					res, err := svc.Push(ctx, data)
					if err != nil {
						return err
					}
					okColor.Fprintf(os.Stderr, "pushed as %s\n", res.ID)
				}
				return nil
			})
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Restore fields and tags from an RO-Crate document",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			data, err := os.ReadFile(cmd.Args().First())
			if err != nil {
				return err
			}
			return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
				im, err := ws.Service.Import(ctx, data)
				if err != nil {
					return err
				}
				okColor.Printf("imported %d fields, %d keywords\n", len(im.Fields), len(im.Keywords))
				return nil
			})
		},
	}
}

func schematicCommand() *cli.Command {
	return &cli.Command{
		Name:  "schematic",
		Usage: "Export or import the form layout",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write the active layout",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Workspace-relative file to write", Value: form.SchematicFile},
					&cli.BoolFlag{Name: "stdout", Usage: "Print the layout instead of writing it"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
						if cmd.Bool("stdout") {
							data, err := ws.Service.ExportSchematic().Encode()
							if err != nil {
								return err
							}
							_, err = os.Stdout.Write(data)
							return err
						}
						data, err := ws.Service.WriteSchematic(cmd.String("output"))
						if err != nil {
							return err
						}
						okColor.Printf("wrote %s (%d bytes)\n", cmd.String("output"), len(data))
						return nil
					})
				},
			},
			{
				Name:      "import",
				Usage:     "Replace the layout; Required items keep the built-in fields",
				ArgsUsage: "FILE",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 1); err != nil {
						return err
					}
					data, err := os.ReadFile(cmd.Args().First())
					if err != nil {
						return err
					}
					return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
						sch, err := ws.Service.ImportSchematic(ctx, data)
						if err != nil {
							return err
						}
						okColor.Printf("schematic imported: %s\n", strings.Join(sch.Headers(), ", "))
						return nil
					})
				},
			},
		},
	}
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List or set keyword tags",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tags by category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "Only list this category"},
					&cli.BoolFlag{Name: "checked", Usage: "Only list selected tags"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
						category := cmd.String("category")
						if category != "" {
							if _, ok := ws.Service.Taxonomy().Category(category); !ok {
								return fmt.Errorf("tags list: unknown category %q", category)
							}
						}
						tags, err := ws.Service.Tags(ctx)
						if err != nil {
							return err
						}
						last := ""
						for _, t := range tags {
							if category != "" && category != t.Category {
								continue
							}
							if cmd.Bool("checked") && !t.Checked {
								continue
							}
							if t.Category != last {
								headColor.Println(t.Category)
								last = t.Category
							}
							if t.Checked {
								okColor.Printf("  [x] %s\n", t.Tag)
							} else {
								fmt.Printf("  [ ] %s\n", t.Tag)
							}
						}
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Select or clear a tag",
				ArgsUsage: "TAG true|false",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 2); err != nil {
						return err
					}
					tag := cmd.Args().Get(0)
					checked, err := strconv.ParseBool(cmd.Args().Get(1))
					if err != nil {
						return fmt.Errorf("tags set: %q is not true or false", cmd.Args().Get(1))
					}
					return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
						if err := ws.Service.SetTag(ctx, tag, checked); err != nil {
							return err
						}
						cats := ws.Service.Taxonomy().CategoriesOf(tag)
						okColor.Printf("%s = %t (%s)\n", tag, checked, strings.Join(cats, ", "))
						return nil
					})
				},
			},
		},
	}
}

func fieldsCommand() *cli.Command {
	return &cli.Command{
		Name:  "fields",
		Usage: "List or set form fields",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List fields by header",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
						for _, g := range ws.Service.Groups() {
							headColor.Println(g.Header)
							for _, f := range g.Fields {
								if f.Required && f.Value == "" {
									warnColor.Printf("  %s: (required)\n", f.Name)
									continue
								}
								fmt.Printf("  %s: %s\n", f.Name, f.Value)
							}
						}
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Set a field value",
				ArgsUsage: "NAME VALUE",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 2); err != nil {
						return err
					}
					name, value := cmd.Args().Get(0), cmd.Args().Get(1)
					return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
						if err := ws.Service.SetField(ctx, name, value); err != nil {
							return err
						}
						okColor.Printf("%s updated\n", name)
						return nil
					})
				},
			},
		},
	}
}

func pushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Send a crate to the ingestion endpoint (the current export when FILE is omitted)",
		ArgsUsage: "[FILE]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withWorkspace(ctx, cmd, func(ws *internal.Workspace) error {
				var data []byte
				if cmd.Args().Len() > 0 {
					var err error
					if data, err = os.ReadFile(cmd.Args().First()); err != nil {
						return err
					}
				} else {
					doc, err := ws.Service.Export(ctx)
					if err != nil {
						return err
					}
					if data, err = doc.Encode(); err != nil {
						return err
					}
				}
				res, err := ws.Service.Push(ctx, data)
				if err != nil {
					return err
				}
				okColor.Printf("pushed as %s: %s\n", res.ID, res.Message)
				return nil
			})
		},
	}
}
