package inventory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/guimove/powerfit/internal/model"
)

// Node annotations overriding the power model of a host.
const (
	AnnotationIdleWatts = "powerfit.io/idle-watts"
	AnnotationBusyWatts = "powerfit.io/busy-watts"
)

const mebibyte = 1024 * 1024

// KubeOptions configures which nodes and pods become hosts and workloads.
type KubeOptions struct {
	Namespaces           []string // empty = all namespaces
	ExcludeNamespaces    []string
	NodeSelector         string // label selector on nodes
	PodSelector          string // label selector on pods
	IncludeDaemonSets    bool   // DaemonSet pods are pinned to their node and skipped by default
	IncludeUnschedulable bool   // cordoned nodes are skipped by default
}

// KubeSource turns a cluster into an inventory: nodes are hosts sized by their
// allocatable CPU (millicores) and memory (MiB), pods are workloads sized by the
// sum of their container requests.
type KubeSource struct {
	client  kubernetes.Interface
	context string
	opts    KubeOptions
}

// NewKubeSource creates a source over an existing clientset.
func NewKubeSource(client kubernetes.Interface, contextName string, opts KubeOptions) *KubeSource {
	return &KubeSource{client: client, context: contextName, opts: opts}
}

func (k *KubeSource) BackendType() string { return BackendKube }

// Ping checks that the API server answers.
func (k *KubeSource) Ping(ctx context.Context) error {
	if _, err := k.client.Discovery().ServerVersion(); err != nil {
		return fmt.Errorf("kubernetes API unreachable: %w", err)
	}
	return nil
}

// Load lists nodes and pods.
func (k *KubeSource) Load(ctx context.Context) (*model.Inventory, error) {
	nodes, err := k.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: k.opts.NodeSelector})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	inv := &model.Inventory{
		CollectedAt: time.Now().UTC(),
		Source:      BackendKube,
		Name:        k.context,
	}

	for i := range nodes.Items {
		node := &nodes.Items[i]
		if node.Spec.Unschedulable && !k.opts.IncludeUnschedulable {
			continue
		}
		host, err := nodeToHost(node)
		if err != nil {
			return nil, err
		}
		inv.Hosts = append(inv.Hosts, host)
	}

	for _, ns := range k.namespaces() {
		pods, err := k.client.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{LabelSelector: k.opts.PodSelector})
		if err != nil {
			return nil, fmt.Errorf("listing pods: %w", err)
		}
		for i := range pods.Items {
			pod := &pods.Items[i]
			if !k.keepPod(pod) {
				continue
			}
			inv.Workloads = append(inv.Workloads, podToWorkload(pod))
		}
	}

	if len(inv.Hosts) == 0 || len(inv.Workloads) == 0 {
		return nil, fmt.Errorf("%w: found %d schedulable nodes and %d pods", ErrEmptyInput, len(inv.Hosts), len(inv.Workloads))
	}
	return inv, nil
}

func (k *KubeSource) namespaces() []string {
	if len(k.opts.Namespaces) == 0 {
		return []string{metav1.NamespaceAll}
	}
	return k.opts.Namespaces
}

func (k *KubeSource) keepPod(pod *corev1.Pod) bool {
	if pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed {
		return false
	}
	if slices.Contains(k.opts.ExcludeNamespaces, pod.Namespace) {
		return false
	}
	if !k.opts.IncludeDaemonSets {
		for _, ref := range pod.OwnerReferences {
			if ref.Kind == "DaemonSet" {
				return false
			}
		}
	}
	return true
}

func nodeToHost(node *corev1.Node) (model.Host, error) {
	alloc := node.Status.Allocatable
	host := model.Host{
		ID: node.Name,
		Capacity: model.Resources{
			CPU:    float64(alloc.Cpu().MilliValue()),
			Memory: float64(alloc.Memory().Value()) / mebibyte,
		},
		Kind: node.Labels[corev1.LabelInstanceTypeStable],
	}

	var err error
	if v, ok := node.Annotations[AnnotationIdleWatts]; ok {
		if host.IdleWatts, err = strconv.ParseFloat(v, 64); err != nil {
			return host, fmt.Errorf("node %s: annotation %s: %w", node.Name, AnnotationIdleWatts, err)
		}
	}
	if v, ok := node.Annotations[AnnotationBusyWatts]; ok {
		if host.BusyWatts, err = strconv.ParseFloat(v, 64); err != nil {
			return host, fmt.Errorf("node %s: annotation %s: %w", node.Name, AnnotationBusyWatts, err)
		}
	}
	return host, nil
}

func podToWorkload(pod *corev1.Pod) model.Workload {
	var cpu, mem resource.Quantity
	for _, c := range pod.Spec.Containers {
		if q, ok := c.Resources.Requests[corev1.ResourceCPU]; ok {
			cpu.Add(q)
		}
		if q, ok := c.Resources.Requests[corev1.ResourceMemory]; ok {
			mem.Add(q)
		}
	}
	return model.Workload{
		ID: pod.Namespace + "/" + pod.Name,
		Demand: model.Resources{
			CPU:    float64(cpu.MilliValue()),
			Memory: float64(mem.Value()) / mebibyte,
		},
		Group:       pod.Namespace,
		CurrentHost: pod.Spec.NodeName,
	}
}
