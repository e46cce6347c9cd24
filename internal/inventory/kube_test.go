package inventory

import (
	"context"
	"errors"
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func newNode(name, cpu, mem string, annotations map[string]string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Labels:      map[string]string{corev1.LabelInstanceTypeStable: "m5.xlarge", "pool": "general"},
			Annotations: annotations,
		},
		Status: corev1.NodeStatus{
			Allocatable: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(cpu),
				corev1.ResourceMemory: resource.MustParse(mem),
			},
		},
	}
}

func newPod(ns, name, node string, cpu, mem string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns},
		Spec: corev1.PodSpec{
			NodeName: node,
			Containers: []corev1.Container{
				{
					Name: "app",
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse(cpu),
							corev1.ResourceMemory: resource.MustParse(mem),
						},
					},
				},
				{
					Name: "sidecar",
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU: resource.MustParse("100m"),
						},
					},
				},
			},
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning},
	}
}

func TestKubeSource_Load(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		newNode("node-1", "4", "16Gi", map[string]string{AnnotationIdleWatts: "90", AnnotationBusyWatts: "240"}),
		newNode("node-2", "3500m", "8Gi", nil),
		newPod("shop", "api", "node-1", "500m", "512Mi"),
		newPod("shop", "worker", "node-2", "1", "1Gi"),
	)

	inv, err := NewKubeSource(client, "lab", KubeOptions{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if inv.Name != "lab" || inv.Source != BackendKube {
		t.Errorf("unexpected name/source %q/%q", inv.Name, inv.Source)
	}
	if len(inv.Hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(inv.Hosts))
	}

	byID := make(map[string]int)
	for i, h := range inv.Hosts {
		byID[h.ID] = i
	}
	n1 := inv.Hosts[byID["node-1"]]
	if n1.Capacity.CPU != 4000 || n1.Capacity.Memory != 16384 {
		t.Errorf("node-1 capacity = %+v, want 4000m/16384MiB", n1.Capacity)
	}
	if n1.IdleWatts != 90 || n1.BusyWatts != 240 || n1.Kind != "m5.xlarge" {
		t.Errorf("node-1 power/kind = %v/%v/%q", n1.IdleWatts, n1.BusyWatts, n1.Kind)
	}
	if n2 := inv.Hosts[byID["node-2"]]; n2.Capacity.CPU != 3500 || n2.IdleWatts != 0 {
		t.Errorf("node-2 = %+v", n2)
	}

	if len(inv.Workloads) != 2 {
		t.Fatalf("expected 2 workloads, got %d", len(inv.Workloads))
	}
	for _, w := range inv.Workloads {
		if w.ID == "shop/api" {
			if w.Demand.CPU != 600 || w.Demand.Memory != 512 {
				t.Errorf("shop/api demand = %+v, want 600m/512MiB", w.Demand)
			}
			if w.Group != "shop" || w.CurrentHost != "node-1" {
				t.Errorf("shop/api group/host = %q/%q", w.Group, w.CurrentHost)
			}
		}
	}
}

func TestKubeSource_Filters(t *testing.T) {
	cordoned := newNode("node-cordoned", "8", "32Gi", nil)
	cordoned.Spec.Unschedulable = true

	done := newPod("batch", "job-1", "node-1", "1", "1Gi")
	done.Status.Phase = corev1.PodSucceeded

	ds := newPod("kube-system", "fluentd", "node-1", "100m", "128Mi")
	ds.OwnerReferences = []metav1.OwnerReference{{Kind: "DaemonSet", Name: "fluentd"}}

	monitoring := newPod("monitoring", "prometheus", "node-1", "1", "2Gi")

	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		newNode("node-1", "4", "16Gi", nil),
		cordoned,
		newPod("shop", "api", "node-1", "500m", "512Mi"),
		done, ds, monitoring,
	)

	tests := []struct {
		name          string
		opts          KubeOptions
		wantHosts     int
		wantWorkloads int
	}{
		{"defaults", KubeOptions{}, 1, 2},
		{"exclude namespace", KubeOptions{ExcludeNamespaces: []string{"monitoring"}}, 1, 1},
		{"include daemonsets", KubeOptions{IncludeDaemonSets: true}, 1, 3},
		{"include unschedulable", KubeOptions{IncludeUnschedulable: true}, 2, 2},
		{"single namespace", KubeOptions{Namespaces: []string{"shop"}}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := NewKubeSource(client, "lab", tt.opts).Load(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(inv.Hosts) != tt.wantHosts {
				t.Errorf("hosts = %d, want %d", len(inv.Hosts), tt.wantHosts)
			}
			if len(inv.Workloads) != tt.wantWorkloads {
				t.Errorf("workloads = %d, want %d", len(inv.Workloads), tt.wantWorkloads)
			}
		})
	}
}

func TestKubeSource_BadAnnotation(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		newNode("node-1", "4", "16Gi", map[string]string{AnnotationIdleWatts: "lots"}),
		newPod("shop", "api", "node-1", "500m", "512Mi"),
	)
	if _, err := NewKubeSource(client, "lab", KubeOptions{}).Load(context.Background()); err == nil {
		t.Error("expected error for non-numeric power annotation")
	}
}

func TestKubeSource_Empty(t *testing.T) {
	client := fake.NewSimpleClientset() //nolint:staticcheck // NewClientset requires generated apply configs
	src := NewKubeSource(client, "lab", KubeOptions{})

	if err := src.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	_, err := src.Load(context.Background())
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}
