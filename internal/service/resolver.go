// Package service implements the backup engine: address resolution, single
// backup attempts, retry choreography, and job orchestration.
package service

import (
	"strconv"
	"strings"

	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// ResolvedTarget pairs a target spec with its concrete address, or with the
// resolution error when the spec could not be expanded.
type ResolvedTarget struct {
	Spec    model.TargetSpec
	Address string
	Err     error
}

// Resolve expands a single target spec into a concrete IPv4 address.
// A full dotted quad passes through unchanged; a bare last octet is combined
// with subnetPrefix (first three octets). Pure function, no side effects.
func Resolve(spec, subnetPrefix string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", &model.InvalidAddressError{Spec: spec, Reason: "empty target"}
	}

	if strings.Contains(spec, ".") {
		if err := validateQuad(spec); err != nil {
			return "", err
		}
		return spec, nil
	}

	octet, err := parseOctet(spec)
	if err != nil {
		return "", &model.InvalidAddressError{Spec: spec, Reason: "last octet out of range"}
	}
	if subnetPrefix == "" {
		return "", &model.InvalidAddressError{Spec: spec, Reason: "no subnet prefix established for bare octet"}
	}
	if err := validatePrefix(subnetPrefix); err != nil {
		return "", err
	}
	return subnetPrefix + "." + strconv.Itoa(octet), nil
}

// ResolveTargets resolves every target in the job. The subnet prefix is
// cfgPrefix when non-empty, otherwise the first three octets of the first
// full address appearing in the job. Resolution failures are recorded
// per-target; one bad spec never fails the others.
func ResolveTargets(job *model.JobDefinition, cfgPrefix string) []ResolvedTarget {
	prefix := cfgPrefix
	if prefix == "" {
		prefix = inferPrefix(job.Targets)
	}

	resolved := make([]ResolvedTarget, 0, len(job.Targets))
	for _, spec := range job.Targets {
		addr, err := Resolve(spec.Address, prefix)
		resolved = append(resolved, ResolvedTarget{Spec: spec, Address: addr, Err: err})
	}
	return resolved
}

// inferPrefix returns the first three octets of the first valid full address
// in the target list, or "" when the job contains none.
func inferPrefix(targets []model.TargetSpec) string {
	for _, spec := range targets {
		addr := strings.TrimSpace(spec.Address)
		if !strings.Contains(addr, ".") {
			continue
		}
		if validateQuad(addr) != nil {
			continue
		}
		return addr[:strings.LastIndex(addr, ".")]
	}
	return ""
}

func parseOctet(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func validateQuad(addr string) error {
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return &model.InvalidAddressError{Spec: addr, Reason: "expected four octets"}
	}
	for _, part := range parts {
		if _, err := parseOctet(part); err != nil {
			return &model.InvalidAddressError{Spec: addr, Reason: "octet out of range"}
		}
	}
	return nil
}

func validatePrefix(prefix string) error {
	parts := strings.Split(prefix, ".")
	if len(parts) != 3 {
		return &model.InvalidAddressError{Spec: prefix, Reason: "subnet prefix must be three octets"}
	}
	for _, part := range parts {
		if _, err := parseOctet(part); err != nil {
			return &model.InvalidAddressError{Spec: prefix, Reason: "subnet prefix octet out of range"}
		}
	}
	return nil
}
