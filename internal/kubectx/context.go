// Package kubectx inspects and switches the active context of the shared
// kubeconfig through client-go, so selection behaves exactly like kubectl.
package kubectx

import (
	"fmt"
	"sort"

	"k8s.io/client-go/tools/clientcmd"
)

// Entry is one context in the shared kubeconfig.
type Entry struct {
	Name    string
	Cluster string
	User    string
	Active  bool
}

// Current returns the name of the active context, or an error when no
// context is selected yet.
func Current() (string, error) {
	config, err := clientcmd.NewDefaultPathOptions().GetStartingConfig()
	if err != nil {
		return "", fmt.Errorf("loading kubeconfig: %w", err)
	}
	if config.CurrentContext == "" {
		return "", fmt.Errorf("no current context is set")
	}
	return config.CurrentContext, nil
}

// List returns every context sorted by name, with the active one marked.
func List() ([]Entry, error) {
	config, err := clientcmd.NewDefaultPathOptions().GetStartingConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	entries := make([]Entry, 0, len(config.Contexts))
	for name, ctx := range config.Contexts {
		entries = append(entries, Entry{
			Name:    name,
			Cluster: ctx.Cluster,
			User:    ctx.AuthInfo,
			Active:  name == config.CurrentContext,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Switch sets the active context. The name must already exist; this never
// creates entries.
func Switch(name string) error {
	pathOptions := clientcmd.NewDefaultPathOptions()
	config, err := pathOptions.GetStartingConfig()
	if err != nil {
		return fmt.Errorf("loading kubeconfig: %w", err)
	}
	if _, exists := config.Contexts[name]; !exists {
		return fmt.Errorf("context %q does not exist in kubeconfig", name)
	}
	config.CurrentContext = name
	path := pathOptions.GetDefaultFilename()
	if pathOptions.IsExplicitFile() {
		path = pathOptions.GetExplicitFile()
	}
	if err := clientcmd.WriteToFile(*config, path); err != nil {
		return fmt.Errorf("writing kubeconfig %s: %w", path, err)
	}
	return nil
}
