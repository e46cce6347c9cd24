package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/guimove/powerfit/internal/model"
)

var ErrVSphereCredentials = errors.New("vSphere host, username and password are required")

// VSphereOptions holds vCenter connection info and scope.
type VSphereOptions struct {
	Host       string
	Username   string
	Password   string
	Datacenter string // empty = the only datacenter
	Cluster    string // empty = every host in the datacenter
	Insecure   bool
}

// VSphereSource reads ESXi hosts (capacity in logical CPUs and MiB) and
// powered-on VMs (configured vCPUs and MiB) from vCenter.
type VSphereSource struct {
	opts   VSphereOptions
	logger logrus.FieldLogger
}

// NewVSphereSource creates a vCenter source.
func NewVSphereSource(opts VSphereOptions, logger logrus.FieldLogger) *VSphereSource {
	return &VSphereSource{opts: opts, logger: logger}
}

func (v *VSphereSource) BackendType() string { return BackendVSphere }

// Ping logs in and out.
func (v *VSphereSource) Ping(ctx context.Context) error {
	client, err := v.connect(ctx)
	if err != nil {
		return err
	}
	return client.Logout(ctx)
}

// Load connects to vCenter and collects the inventory.
func (v *VSphereSource) Load(ctx context.Context) (*model.Inventory, error) {
	client, err := v.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Logout(ctx); err != nil {
			v.logger.WithError(err).Debug("vSphere logout failed")
		}
	}()

	return loadVSphere(ctx, client.Client, v.opts)
}

func (v *VSphereSource) connect(ctx context.Context) (*govmomi.Client, error) {
	if v.opts.Host == "" || v.opts.Username == "" || v.opts.Password == "" {
		return nil, ErrVSphereCredentials
	}

	host := v.opts.Host
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}
	u, err := url.Parse(strings.TrimSuffix(host, "/") + "/sdk")
	if err != nil {
		return nil, fmt.Errorf("invalid vCenter URL %q: %w", v.opts.Host, err)
	}
	u.User = url.UserPassword(v.opts.Username, v.opts.Password)

	client, err := govmomi.NewClient(ctx, u, v.opts.Insecure)
	if err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509"):
			return nil, fmt.Errorf("SSL certificate error connecting to %s, set vsphere.insecure to skip verification: %w", v.opts.Host, err)
		case strings.Contains(errStr, "Cannot complete login") || strings.Contains(errStr, "401"):
			return nil, fmt.Errorf("vSphere authentication failed for %s: %w", v.opts.Username, err)
		}
		return nil, fmt.Errorf("connecting to vCenter at %s: %w", v.opts.Host, err)
	}

	v.logger.WithField("host", v.opts.Host).Info("vSphere connected")
	return client, nil
}

// loadVSphere walks the datacenter (or cluster) with a container view.
func loadVSphere(ctx context.Context, c *vim25.Client, opts VSphereOptions) (*model.Inventory, error) {
	finder := find.NewFinder(c, true)

	dc, err := finder.DatacenterOrDefault(ctx, opts.Datacenter)
	if err != nil {
		return nil, fmt.Errorf("datacenter %q: %w", opts.Datacenter, err)
	}
	finder.SetDatacenter(dc)

	root := dc.Reference()
	name := dc.Name()
	if opts.Cluster != "" {
		cluster, err := finder.ClusterComputeResource(ctx, opts.Cluster)
		if err != nil {
			return nil, fmt.Errorf("cluster %q: %w", opts.Cluster, err)
		}
		root = cluster.Reference()
		name = cluster.Name()
	}

	m := view.NewManager(c)
	cv, err := m.CreateContainerView(ctx, root, []string{"HostSystem", "VirtualMachine"}, true)
	if err != nil {
		return nil, fmt.Errorf("creating container view: %w", err)
	}
	defer func() { _ = cv.Destroy(ctx) }()

	var hosts []mo.HostSystem
	if err := cv.Retrieve(ctx, []string{"HostSystem"}, []string{"name", "summary"}, &hosts); err != nil {
		return nil, fmt.Errorf("retrieving hosts: %w", err)
	}
	var vms []mo.VirtualMachine
	if err := cv.Retrieve(ctx, []string{"VirtualMachine"}, []string{"name", "summary", "runtime"}, &vms); err != nil {
		return nil, fmt.Errorf("retrieving VMs: %w", err)
	}

	inv := &model.Inventory{
		CollectedAt: time.Now().UTC(),
		Source:      BackendVSphere,
		Name:        name,
	}

	hostNames := make(map[string]string, len(hosts))
	for i := range hosts {
		if h, ok := esxiToHost(&hosts[i]); ok {
			inv.Hosts = append(inv.Hosts, h)
		}
		hostNames[hosts[i].Self.Value] = hosts[i].Name
	}

	for i := range vms {
		if w, ok := vmToWorkload(&vms[i], hostNames); ok {
			inv.Workloads = append(inv.Workloads, w)
		}
	}

	if len(inv.Hosts) == 0 || len(inv.Workloads) == 0 {
		return nil, fmt.Errorf("%w: found %d usable hosts and %d powered-on VMs", ErrEmptyInput, len(inv.Hosts), len(inv.Workloads))
	}
	return inv, nil
}

// esxiToHost keeps powered-on hosts outside maintenance mode.
func esxiToHost(h *mo.HostSystem) (model.Host, bool) {
	hw := h.Summary.Hardware
	if hw == nil || h.Summary.Runtime == nil {
		return model.Host{}, false
	}
	if h.Summary.Runtime.PowerState != types.HostSystemPowerStatePoweredOn || h.Summary.Runtime.InMaintenanceMode {
		return model.Host{}, false
	}
	return model.Host{
		ID: h.Name,
		Capacity: model.Resources{
			CPU:    float64(hw.NumCpuThreads), // logical processors, includes hyperthreading
			Memory: float64(hw.MemorySize) / mebibyte,
		},
		Kind: hw.Model,
	}, true
}

// vmToWorkload keeps powered-on VMs; templates are skipped.
func vmToWorkload(vm *mo.VirtualMachine, hostNames map[string]string) (model.Workload, bool) {
	if vm.Runtime.PowerState != types.VirtualMachinePowerStatePoweredOn || vm.Summary.Config.Template {
		return model.Workload{}, false
	}
	w := model.Workload{
		ID: vm.Name,
		Demand: model.Resources{
			CPU:    float64(vm.Summary.Config.NumCpu),
			Memory: float64(vm.Summary.Config.MemorySizeMB),
		},
	}
	if vm.Runtime.Host != nil {
		w.CurrentHost = hostNames[vm.Runtime.Host.Value]
	}
	return w, true
}
