package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/guimove/powerfit/internal/aws"
	"github.com/guimove/powerfit/internal/inventory"
	"github.com/guimove/powerfit/internal/kube"
)

// resolveSource creates the inventory source selected by input.source.
func resolveSource(ctx context.Context) (inventory.Source, error) {
	switch cfg.Input.Source {
	case inventory.BackendFile:
		if cfg.Input.Path == "" {
			return nil, fmt.Errorf("the file source needs --input or input.path")
		}
		return inventory.NewFileSource(cfg.Input.Path), nil

	case inventory.BackendRandom:
		return inventory.NewRandomSource(cfg.Random.Options()), nil

	case inventory.BackendPrompt:
		return inventory.NewPromptSource(os.Stdin, os.Stdout, os.Getenv("ACCESSIBLE") != ""), nil

	case inventory.BackendKube:
		client, kubeContext, err := kube.NewClient(kube.ClientOptions{
			Kubeconfig: cfg.Kubernetes.Kubeconfig,
			Context:    cfg.Kubernetes.Context,
			Timeout:    cfg.Kubernetes.Timeout,
			QPS:        cfg.Kubernetes.QPS,
			Burst:      cfg.Kubernetes.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to Kubernetes: %w", err)
		}
		log.WithField("context", kubeContext).Debug("kubernetes client ready")
		return inventory.NewKubeSource(client, kubeContext, cfg.Kubernetes.Options()), nil

	case inventory.BackendVSphere:
		return inventory.NewVSphereSource(cfg.VSphere.Options(), log), nil

	case inventory.BackendEC2:
		catalog, err := aws.NewEC2Catalog(ctx, cfg.EC2.Region, cfg.EC2.CacheDir)
		if err != nil {
			return nil, err
		}
		return inventory.NewEC2Source(catalog, cfg.EC2.Options()), nil

	default:
		return nil, fmt.Errorf("%w: %q", inventory.ErrUnknownSource, cfg.Input.Source)
	}
}
