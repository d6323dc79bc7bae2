// annotations.go defines the annotation types, argument constants, and parser for the
// WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @pcss: that drive struct injection, bind group declaration, and resource
// provider registration. The parsed results are stored as Annotation values and consumed
// by the PreProcessor and Scene to wire GPU resources to bind groups.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@pcss:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition
	// into the shader at the annotation site. Consumed entirely during pre-processing.
	//
	// Syntax: //@pcss:include <struct_type>
	//
	// Example: //@pcss:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and appends an Annotation to the PreProcessor's declarations list.
	//
	// Syntax: //@pcss:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@pcss:group 0 0 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider registers a resource provider identity for a group and binding
	// without generating any WGSL output. The WGSL declaration stays hand-written below the
	// annotation. Used for textures and samplers, which have no registered struct.
	//
	// Syntax:
	//   //@pcss:provider <group> <binding> <provider_identity>
	//   //@pcss:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Example: //@pcss:provider 2 1 light shadow_map
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed @pcss: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key (e.g. "camera")
	//   - group:    [0] = address space, [1] = var name, [2] = type key, optionally array<key>
	//   - provider: [0] = provider identity (e.g. "light"), [1] = binding role (optional, e.g. "shadow_map")
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source, for error reporting.
	Line int

	// Group is the @group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// Struct type arguments. Each maps to a Go GPU type with an embedded .wgsl asset file.
const (
	// AnnotationArgCamera identifies the CameraUniform struct.
	// Source: engine/camera/assets/camera_uniform.wgsl
	AnnotationArgCamera AnnotationArg = "camera"

	// annotationArgVertex identifies the VertexInput struct.
	// Source: engine/model/assets/vertex.wgsl
	annotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgInstance identifies the InstanceData struct read from the instance storage buffer.
	// Source: engine/model/assets/instance_data.wgsl
	AnnotationArgInstance AnnotationArg = "instance"

	// AnnotationArgLight identifies the LightUniform struct read by the lit fragment shader.
	// Source: engine/light/assets/light_uniform.wgsl
	AnnotationArgLight AnnotationArg = "light"

	// AnnotationArgShadowUniform identifies the ShadowUniform struct for the shadow depth pass.
	// Source: engine/light/assets/shadow_uniform.wgsl
	AnnotationArgShadowUniform AnnotationArg = "shadow_uniform"
)

// Address space arguments. They map to WGSL var<> declarations.
const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"
)

// Provider identity arguments name the scene-level BindGroupProvider that owns a binding.
// Group annotations are identified by their struct type key instead.
const (
	// AnnotationArgInstances identifies the per-instance storage buffer provider.
	AnnotationArgInstances AnnotationArg = "instances"

	// AnnotationArgShadow identifies the shadow depth pass uniform provider.
	AnnotationArgShadow AnnotationArg = "shadow"
)

// Binding role arguments qualify individual bindings within the light provider group.
const (
	// AnnotationArgShadowMap identifies the shadow depth texture binding.
	AnnotationArgShadowMap AnnotationArg = "shadow_map"

	// AnnotationArgShadowSampler identifies the comparison sampler paired with the shadow map.
	AnnotationArgShadowSampler AnnotationArg = "shadow_sampler"
)

// validStructTypes lists the struct type arguments accepted by include and group annotations.
// Each entry must have a registryEntry in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	annotationArgVertex,
	AnnotationArgInstance,
	AnnotationArgLight,
	AnnotationArgShadowUniform,
}

// validAddressSpaces lists the address space arguments accepted by group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

// validProviderIdentities lists the identities accepted by provider annotations.
var validProviderIdentities = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgInstances,
	AnnotationArgLight,
	AnnotationArgShadow,
}

// validBindingRoles lists the role qualifiers accepted by provider annotations.
var validBindingRoles = []AnnotationArg{
	AnnotationArgShadowMap,
	AnnotationArgShadowSampler,
}

// structTypeKey strips an optional array<> wrapper from a group annotation type argument.
func structTypeKey(arg AnnotationArg) AnnotationArg {
	if inner, ok := strings.CutPrefix(string(arg), "array<"); ok {
		return AnnotationArg(strings.TrimSuffix(inner, ">"))
	}
	return arg
}

// FindDeclaration searches declarations for a binding owned by identity. Group annotations
// match on their struct type key (array<> stripped) when role is empty. Provider annotations
// match on identity and, when role is non-empty, on their binding role.
//
// Parameters:
//   - declarations: the declarations collected by the pre-processor
//   - identity: the struct type key or provider identity
//   - role: the binding role, or "" to match any
//
// Returns:
//   - Annotation: the first matching declaration
//   - bool: false if nothing matched
func FindDeclaration(declarations []Annotation, identity, role AnnotationArg) (Annotation, bool) {
	for _, d := range declarations {
		switch d.Type {
		case AnnotationTypeBindingGroup:
			if role == "" && structTypeKey(d.Args[2]) == identity {
				return d, true
			}
		case AnnotationTypeProvider:
			if d.Args[0] != identity {
				continue
			}
			if role == "" || (len(d.Args) > 1 && d.Args[1] == role) {
				return d, true
			}
		}
	}
	return Annotation{}, false
}

// parseAnnotation attempts to parse a single line of WGSL source as an @pcss: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @pcss annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @pcss include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @pcss include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @pcss group annotation requires five arguments (group, binding, address space, var name, struct type)", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @pcss group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, structTypeKey(AnnotationArg(args[5]))) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @pcss group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @pcss provider annotation requires three or four arguments (group, binding, provider identity[, binding role])", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @pcss provider annotation", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q in @pcss provider annotation", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @pcss annotation type %q", lineNum, args[0])
	}
}

func parseGroupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, bindingArg)
	}
	return group, binding, nil
}
