package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

const (
	// ResourceCPU Quantity key for CPU cores
	ResourceCPU = "cpu"
	// ResourceMemory Quantity key for memory
	ResourceMemory = "memory"
	// ResourceEphemeralStorage Quantity key for local disk
	ResourceEphemeralStorage = "ephemeral-storage"

	// MinCPUs Smallest CPU amount the cluster can represent, one millicore
	MinCPUs = 0.001
)

// ResourceSpec holds a compute resource request or limit
type ResourceSpec struct {
	// CPUs Number of CPU cores, fractions allowed
	//
	// required: true
	// example: 1.5
	CPUs float64 `json:"cpus" yaml:"cpus"`

	// RAM Memory in megabytes
	//
	// required: true
	// example: 1024
	RAM uint64 `json:"ram" yaml:"ram"`

	// Disk Ephemeral storage in megabytes
	//
	// required: true
	// example: 2048
	Disk uint64 `json:"disk" yaml:"disk"`
}

// NewResourceSpec Constructor
func NewResourceSpec(cpus float64, ramMB, diskMB uint64) ResourceSpec {
	return ResourceSpec{CPUs: cpus, RAM: ramMB, Disk: diskMB}
}

// ToQuantities Renders the resource spec as quantity strings keyed by resource name
func (r ResourceSpec) ToQuantities() map[string]string {
	return map[string]string{
		ResourceCPU:              strconv.FormatFloat(r.CPUs, 'f', -1, 64),
		ResourceMemory:           fmt.Sprintf("%dM", r.RAM),
		ResourceEphemeralStorage: fmt.Sprintf("%dM", r.Disk),
	}
}

// ResourceList Parses ToQuantities into a Kubernetes resource list. Call it on a validated spec
func (r ResourceSpec) ResourceList() corev1.ResourceList {
	list := corev1.ResourceList{}
	for name, value := range r.ToQuantities() {
		quantity, err := resource.ParseQuantity(value)
		if err != nil {
			continue
		}
		list[corev1.ResourceName(name)] = quantity
	}
	return list
}

// Validate Checks that every component is a positive finite number
func (r ResourceSpec) Validate() error {
	var errs []error
	if math.IsNaN(r.CPUs) || math.IsInf(r.CPUs, 0) || r.CPUs <= 0 {
		errs = append(errs, fmt.Errorf("cpus must be a positive number, got %v", r.CPUs))
	} else if r.CPUs < MinCPUs {
		errs = append(errs, fmt.Errorf("cpus must be at least %v, got %v", MinCPUs, r.CPUs))
	}
	if r.RAM == 0 {
		errs = append(errs, errors.New("ram must be positive"))
	}
	if r.Disk == 0 {
		errs = append(errs, errors.New("disk must be positive"))
	}
	return errors.Join(errs...)
}

// BelowRequest Lists the resource names where the receiver, used as a limit, is lower than the request
func (r ResourceSpec) BelowRequest(request ResourceSpec) (below []string) {
	if r.CPUs < request.CPUs {
		below = append(below, ResourceCPU)
	}
	if r.RAM < request.RAM {
		below = append(below, ResourceMemory)
	}
	if r.Disk < request.Disk {
		below = append(below, ResourceEphemeralStorage)
	}
	return below
}
