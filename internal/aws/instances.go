package aws

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// InstanceType is the hardware shape of one EC2 instance type.
type InstanceType struct {
	Name              string `json:"name"`
	Family            string `json:"family"`
	Generation        int    `json:"generation"`
	Size              string `json:"size"`
	VCPUs             int32  `json:"vcpus"`
	MemoryMiB         int64  `json:"memory_mib"`
	Architecture      string `json:"architecture"`
	CurrentGeneration bool   `json:"current_generation"`
	BareMetal         bool   `json:"bare_metal"`
}

// InstanceTypes returns the specs of the named instance types, in the order
// requested. Results are cached per region when a cache directory is set.
func (c *EC2Catalog) InstanceTypes(ctx context.Context, names []string) ([]InstanceType, error) {
	if len(names) == 0 {
		return nil, nil
	}

	wanted := slices.Clone(names)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	byName := make(map[string]InstanceType, len(wanted))
	key := c.cacheKey(wanted)
	var cached []InstanceType
	if c.cache != nil && c.cache.Get(key, catalogCacheTTL, &cached) {
		for _, it := range cached {
			byName[it.Name] = it
		}
	} else {
		fetched, err := c.describe(ctx, wanted)
		if err != nil {
			return nil, err
		}
		for _, it := range fetched {
			byName[it.Name] = it
		}
		if c.cache != nil {
			_ = c.cache.Set(key, fetched)
		}
	}

	out := make([]InstanceType, 0, len(names))
	for _, name := range names {
		it, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownInstanceType, name)
		}
		out = append(out, it)
	}
	return out, nil
}

func (c *EC2Catalog) describe(ctx context.Context, names []string) ([]InstanceType, error) {
	typeNames := make([]ec2types.InstanceType, len(names))
	for i, n := range names {
		typeNames[i] = ec2types.InstanceType(n)
	}

	var out []InstanceType
	var nextToken *string
	for {
		output, err := c.client.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
			InstanceTypes: typeNames,
			NextToken:     nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("describing instance types: %w", err)
		}

		for _, it := range output.InstanceTypes {
			out = append(out, convertInstanceType(it))
		}

		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}
	return out, nil
}

func (c *EC2Catalog) cacheKey(names []string) string {
	return "instance-types-" + c.region + "-" + strings.Join(names, "_")
}

// convertInstanceType maps an EC2 InstanceTypeInfo to our InstanceType.
func convertInstanceType(it ec2types.InstanceTypeInfo) InstanceType {
	out := InstanceType{Name: string(it.InstanceType)}
	out.Family, out.Generation, out.Size = parseInstanceType(out.Name)

	if it.VCpuInfo != nil && it.VCpuInfo.DefaultVCpus != nil {
		out.VCPUs = *it.VCpuInfo.DefaultVCpus
	}
	if it.MemoryInfo != nil && it.MemoryInfo.SizeInMiB != nil {
		out.MemoryMiB = *it.MemoryInfo.SizeInMiB
	}

	if it.ProcessorInfo != nil {
		for _, arch := range it.ProcessorInfo.SupportedArchitectures {
			switch arch {
			case ec2types.ArchitectureTypeX8664:
				out.Architecture = "amd64"
			case ec2types.ArchitectureTypeArm64:
				out.Architecture = "arm64"
			}
		}
	}

	out.CurrentGeneration = aws.ToBool(it.CurrentGeneration)
	out.BareMetal = aws.ToBool(it.BareMetal)
	return out
}

// parseInstanceType extracts family, generation, and size from an instance type name.
// e.g., "m5.xlarge" → ("m5", 5, "xlarge"), "m7g.large" → ("m7g", 7, "large")
var instanceTypeRegex = regexp.MustCompile(`^([a-z]+)(\d+)([a-z-]*)\.(.+)$`)

func parseInstanceType(instanceType string) (family string, generation int, size string) {
	parts := strings.SplitN(instanceType, ".", 2)
	if len(parts) != 2 {
		return instanceType, 0, ""
	}

	family = parts[0]
	size = parts[1]

	matches := instanceTypeRegex.FindStringSubmatch(instanceType)
	if len(matches) >= 5 {
		generation, _ = strconv.Atoi(matches[2])
	}
	return family, generation, size
}
