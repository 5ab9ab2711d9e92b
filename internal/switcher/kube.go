package switcher

import (
	"context"
	"fmt"
	"slices"

	"k8s.io/client-go/tools/clientcmd"
)

// Kube switches the current kubeconfig context.
type Kube struct {
	// Kubeconfig is an explicit kubeconfig path. Empty follows $KUBECONFIG
	// and ~/.kube/config.
	Kubeconfig string
}

// NewKube creates a kube context provider.
func NewKube(kubeconfig string) *Kube {
	return &Kube{Kubeconfig: kubeconfig}
}

func (k *Kube) rules() *clientcmd.ClientConfigLoadingRules {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if k.Kubeconfig != "" {
		rules.ExplicitPath = k.Kubeconfig
	}
	return rules
}

// Name implements Provider.
func (k *Kube) Name() string { return "kube" }

// Appearance implements Describer.
func (k *Kube) Appearance() Appearance {
	return Appearance{
		Widget:      "kube-context",
		Prefix:      "kube",
		Icon:        "⎈",
		Fallback:    "no context",
		MaxLabelLen: 24,
	}
}

// Current implements Provider.
func (k *Kube) Current(context.Context) (string, error) {
	cfg, err := k.rules().Load()
	if err != nil {
		return "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return cfg.CurrentContext, nil
}

// List implements Provider. Context names are sorted.
func (k *Kube) List(context.Context) ([]string, error) {
	cfg, err := k.rules().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Activate implements Provider by rewriting current-context.
func (k *Kube) Activate(_ context.Context, candidate string) error {
	rules := k.rules()
	cfg, err := rules.GetStartingConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if _, ok := cfg.Contexts[candidate]; !ok {
		return fmt.Errorf("context %q not found in kubeconfig", candidate)
	}
	cfg.CurrentContext = candidate
	if err := clientcmd.ModifyConfig(rules, *cfg, true); err != nil {
		return fmt.Errorf("failed to switch context: %w", err)
	}
	return nil
}
