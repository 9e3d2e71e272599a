package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/rickgorman/ephemera/pkg/lifecycle"
)

// Output formats accepted by -o.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
	formatEnv  = "env"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatYAML, formatJSON, formatEnv:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, yaml, json or env)", format)
	}
}

// stackInfo is the machine-readable description of a running stack.
type stackInfo struct {
	Stack    string        `json:"stack" yaml:"stack"`
	Services []serviceInfo `json:"services" yaml:"services"`
}

type serviceInfo struct {
	Service   string `json:"service" yaml:"service"`
	Container string `json:"container" yaml:"container"`
	Image     string `json:"image" yaml:"image"`
	Port      int    `json:"port" yaml:"port"`
	URL       string `json:"url" yaml:"url"`
}

func describeStack(id string, stack *lifecycle.Stack) stackInfo {
	info := stackInfo{Stack: id}
	for _, name := range stack.Services() {
		inst := stack.Get(name)
		url, _ := inst.URL("")
		info.Services = append(info.Services, serviceInfo{
			Service:   name,
			Container: inst.Name,
			Image:     inst.Image,
			Port:      inst.HostPort,
			URL:       url,
		})
	}
	return info
}

// writeStack renders the stack to w in format.
func writeStack(w io.Writer, format, id string, stack *lifecycle.Stack) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(describeStack(id, stack))

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(describeStack(id, stack)); err != nil {
			return err
		}
		return enc.Close()

	case formatEnv:
		for _, kv := range stack.Env() {
			if _, err := fmt.Fprintln(w, kv); err != nil {
				return err
			}
		}
		return nil

	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SERVICE\tCONTAINER\tIMAGE\tURL")
		for _, svc := range describeStack(id, stack).Services {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", svc.Service, svc.Container, svc.Image, svc.URL)
		}
		return tw.Flush()
	}
}
