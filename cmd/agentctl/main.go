package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vladymyr/antiagent/agent"
	"github.com/vladymyr/antiagent/classfile"
	"github.com/vladymyr/antiagent/transform"
)

func main() {
	var (
		outDir      = flag.String("out", "", "Directory for rewritten classpacks (default: alongside input with .out suffix)")
		selfName    = flag.String("self", "", "Internal class name exempt from the hook cleaner")
		targetSpec  = flag.String("target", "", "Override the hooked method as iface:name:desc")
		list        = flag.Bool("list", false, "List classes, methods and dynamic call sites and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: agentctl [-out dir] [-self name] <pack.cpak>...")
		fmt.Fprintln(os.Stderr, "       agentctl -list <pack.cpak>...")
		fmt.Fprintln(os.Stderr, "       agentctl -i <pack.cpak>...  (interactive mode)")
		os.Exit(1)
	}

	target := agent.HookTarget
	if *targetSpec != "" {
		var err error
		target, err = parseTarget(*targetSpec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *interactive {
		if err := runInteractive(files, target, *selfName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *list {
		if err := listPacks(files); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := rewritePacks(files, *outDir, target, *selfName, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseTarget parses an iface:name:desc triple. Descriptors never contain
// colons, so a plain three-way split is unambiguous.
func parseTarget(s string) (agent.TargetMethod, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return agent.TargetMethod{}, fmt.Errorf("invalid -target %q, want iface:name:desc", s)
	}
	return agent.TargetMethod{Interface: parts[0], Name: parts[1], Desc: parts[2]}, nil
}

// cleaners returns the transformer set agentctl applies offline.
func cleaners(target agent.TargetMethod, self string) []transform.Transformer {
	return []transform.Transformer{
		agent.NewHookCleaner(target, self),
		agent.NewDumpStackCleaner(),
	}
}

// offlineIdentity derives a nominal runtime identity from the pack itself:
// the syntactic interface list is all the assignability information an
// offline rewrite has.
func offlineIdentity(cls *classfile.Class) *classfile.Identity {
	return &classfile.Identity{Name: cls.Name, Assignable: cls.Interfaces}
}

func loadPack(codec classfile.Codec, path string) (*classfile.Class, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	cls, err := codec.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cls, data, nil
}

func rewritePacks(files []string, outDir string, target agent.TargetMethod, self string, log *zap.Logger) error {
	codec := classfile.NewClasspackCodec()
	eng := agent.New(agent.Config{
		Transformers: cleaners(target, self),
		Codec:        codec,
		Logger:       log,
	})

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, path := range files {
		path := path
		g.Go(func() error {
			cls, data, err := loadPack(codec, path)
			if err != nil {
				return err
			}

			out, err := eng.Transform("agentctl", cls.Name, offlineIdentity(cls), data)
			if err != nil {
				return fmt.Errorf("transform %s: %w", path, err)
			}
			if out == nil {
				fmt.Printf("%s: no change\n", path)
				return nil
			}

			dest := path + ".out"
			if outDir != "" {
				dest = filepath.Join(outDir, filepath.Base(path))
			}
			if err := os.WriteFile(dest, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			fmt.Printf("%s: rewritten -> %s\n", path, dest)
			return nil
		})
	}
	return g.Wait()
}

func listPacks(files []string) error {
	codec := classfile.NewClasspackCodec()
	for _, path := range files {
		cls, _, err := loadPack(codec, path)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s", path, cls.Name)
		if len(cls.Interfaces) > 0 {
			fmt.Printf(" implements %s", strings.Join(cls.Interfaces, ", "))
		}
		fmt.Println()

		for _, m := range cls.Methods {
			fmt.Printf("  %s%s  (%d instructions)\n", m.Name, m.Desc, len(m.Code))
			for _, insn := range m.Code {
				indy, ok := insn.Imm.(classfile.InvokeDynamicImm)
				if !ok {
					continue
				}
				fmt.Printf("    invokedynamic %s%s\n", indy.Name, indy.Desc)
				for i, arg := range indy.Args {
					switch v := arg.(type) {
					case classfile.MethodType:
						fmt.Printf("      [%d] method type %s\n", i, v.Desc)
					case classfile.Handle:
						fmt.Printf("      [%d] handle kind=%d %s.%s%s\n", i, v.Kind, v.Owner, v.Name, v.Desc)
					default:
						fmt.Printf("      [%d] %v\n", i, v)
					}
				}
			}
		}
	}
	return nil
}
