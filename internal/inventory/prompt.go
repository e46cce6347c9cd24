package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/guimove/powerfit/internal/model"
)

// Prompt bounds mirror the classic percentage-based entry form.
const (
	maxPromptDemand   = 100
	maxPromptCapacity = 1000
	maxPromptCount    = 500
)

// PromptSource asks for VMs and PMs interactively.
type PromptSource struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// NewPromptSource creates a prompt reading from in and drawing to out. Accessible
// mode replaces the TUI with plain line prompts, for dumb terminals and screen readers.
func NewPromptSource(in io.Reader, out io.Writer, accessible bool) *PromptSource {
	return &PromptSource{in: in, out: out, accessible: accessible}
}

func (p *PromptSource) Ping(context.Context) error { return nil }

func (p *PromptSource) BackendType() string { return BackendPrompt }

// promptAnswers holds the raw form values (strings for huh).
type promptAnswers struct {
	vmCount    string
	pmCount    string
	withMemory bool
	vmCPU      []string
	vmMemory   []string
	pmCPU      []string
	pmMemory   []string
	idleWatts  string
	busyWatts  string
}

// Load runs the forms and builds the inventory from the answers.
func (p *PromptSource) Load(ctx context.Context) (*model.Inventory, error) {
	a := &promptAnswers{
		vmCount:   "4",
		pmCount:   "2",
		idleWatts: strconv.FormatFloat(model.DefaultIdleWatts, 'f', -1, 64),
		busyWatts: strconv.FormatFloat(model.DefaultBusyWatts, 'f', -1, 64),
	}

	if err := p.run(ctx, a.countsForm()); err != nil {
		return nil, err
	}
	vms, _ := strconv.Atoi(a.vmCount)
	pms, _ := strconv.Atoi(a.pmCount)
	a.vmCPU, a.vmMemory = make([]string, vms), make([]string, vms)
	a.pmCPU, a.pmMemory = make([]string, pms), make([]string, pms)

	if err := p.run(ctx, a.detailsForm()); err != nil {
		return nil, err
	}
	return a.inventory()
}

func (p *PromptSource) run(ctx context.Context, form *huh.Form) error {
	form = form.WithAccessible(p.accessible)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("prompt cancelled: %w", err)
		}
		return fmt.Errorf("running prompt: %w", err)
	}
	return nil
}

func (a *promptAnswers) countsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Number of virtual machines").
				Value(&a.vmCount).
				Validate(validateCount),
			huh.NewInput().
				Title("Number of physical machines").
				Value(&a.pmCount).
				Validate(validateCount),
			huh.NewConfirm().
				Title("Enter memory as well as CPU?").
				Value(&a.withMemory),
		).Title("Inventory size"),
	)
}

func (a *promptAnswers) detailsForm() *huh.Form {
	var vmFields, pmFields []huh.Field
	for i := range a.vmCPU {
		vmFields = append(vmFields, huh.NewInput().
			Title(fmt.Sprintf("CPU demand of VM%d (%%)", i+1)).
			Value(&a.vmCPU[i]).
			Validate(validateDemand))
		if a.withMemory {
			vmFields = append(vmFields, huh.NewInput().
				Title(fmt.Sprintf("Memory demand of VM%d", i+1)).
				Value(&a.vmMemory[i]).
				Validate(validateNonNegative))
		}
	}
	for i := range a.pmCPU {
		pmFields = append(pmFields, huh.NewInput().
			Title(fmt.Sprintf("CPU capacity of PM%d (%%)", i+1)).
			Value(&a.pmCPU[i]).
			Validate(validateCapacity))
		if a.withMemory {
			pmFields = append(pmFields, huh.NewInput().
				Title(fmt.Sprintf("Memory capacity of PM%d", i+1)).
				Value(&a.pmMemory[i]).
				Validate(validatePositive))
		}
	}

	return huh.NewForm(
		huh.NewGroup(vmFields...).Title("Virtual machines"),
		huh.NewGroup(pmFields...).Title("Physical machines"),
		huh.NewGroup(
			huh.NewInput().Title("Idle power (W)").Value(&a.idleWatts).Validate(validateNonNegative),
			huh.NewInput().Title("Busy power (W)").Value(&a.busyWatts).Validate(validateNonNegative),
		).Title("Power model"),
	)
}

// inventory converts validated answers into an inventory.
func (a *promptAnswers) inventory() (*model.Inventory, error) {
	idle, err := parseNumber(a.idleWatts)
	if err != nil {
		return nil, fmt.Errorf("idle power: %w", err)
	}
	busy, err := parseNumber(a.busyWatts)
	if err != nil {
		return nil, fmt.Errorf("busy power: %w", err)
	}

	inv := &model.Inventory{
		CollectedAt: time.Now().UTC(),
		Source:      BackendPrompt,
		Workloads:   make([]model.Workload, len(a.vmCPU)),
		Hosts:       make([]model.Host, len(a.pmCPU)),
	}
	for i := range a.vmCPU {
		if inv.Workloads[i].Demand, err = parsePair(a.vmCPU[i], a.vmMemory[i], a.withMemory); err != nil {
			return nil, fmt.Errorf("VM%d: %w", i+1, err)
		}
	}
	for i := range a.pmCPU {
		if inv.Hosts[i].Capacity, err = parsePair(a.pmCPU[i], a.pmMemory[i], a.withMemory); err != nil {
			return nil, fmt.Errorf("PM%d: %w", i+1, err)
		}
		inv.Hosts[i].IdleWatts = idle
		inv.Hosts[i].BusyWatts = busy
	}
	inv.Normalize()
	return inv, nil
}

func parsePair(cpu, mem string, withMemory bool) (model.Resources, error) {
	var r model.Resources
	var err error
	if r.CPU, err = parseNumber(cpu); err != nil {
		return r, fmt.Errorf("cpu: %w", err)
	}
	if withMemory {
		if r.Memory, err = parseNumber(mem); err != nil {
			return r, fmt.Errorf("memory: %w", err)
		}
	}
	return r, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func validateBetween(s string, lo, hi float64) error {
	v, err := parseNumber(s)
	if err != nil {
		return err
	}
	if v < lo || v > hi {
		return fmt.Errorf("must be between %v and %v", lo, hi)
	}
	return nil
}

func validateCount(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%q is not a whole number", s)
	}
	if v < 1 || v > maxPromptCount {
		return fmt.Errorf("must be between 1 and %d", maxPromptCount)
	}
	return nil
}

func validateDemand(s string) error   { return validateBetween(s, 1, maxPromptDemand) }
func validateCapacity(s string) error { return validateBetween(s, 1, maxPromptCapacity) }

func validateNonNegative(s string) error {
	v, err := parseNumber(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func validatePositive(s string) error {
	v, err := parseNumber(s)
	if err != nil {
		return err
	}
	if v <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
