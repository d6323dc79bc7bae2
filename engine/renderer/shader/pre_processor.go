// pre_processor.go implements the WGSL shader pre-processor. It scans shader source
// for @pcss: annotations, replaces them with generated WGSL declarations or injected
// struct source, and collects a declarations list that the Scene uses to wire GPU
// resources to bind groups without hard-coding group and binding indices.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their
//     WGSL type names. Used by @pcss:include (to inject the struct source) and
//     @pcss:group (to resolve the type name in the generated declaration).
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/pcss-go/engine/camera"
	"github.com/Carmen-Shannon/pcss-go/engine/light"
	"github.com/Carmen-Shannon/pcss-go/engine/model"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @pcss:include.
	Source string

	// Type is the WGSL type name emitted in @pcss:group declarations (e.g. "CameraUniform").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group and provider annotations during a Process call.
	// Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source containing @pcss: annotations,
// replacing them with generated declarations or injected struct sources while collecting
// a declarations list for downstream resource wiring.
type PreProcessor interface {
	// Process pre-processes raw WGSL source. @pcss:include annotations are replaced with
	// embedded struct source text. @pcss:group annotations are replaced with generated
	// @group/@binding variable declarations. @pcss:provider annotations produce no WGSL
	// output but are recorded in the declarations list.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//
	// Returns:
	//   - string: the processed WGSL source with annotations replaced
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations collected during the most
	// recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with every GPU struct type and address space registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:        {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
			annotationArgVertex:        {Source: model.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgInstance:      {Source: model.GPUInstanceSource, Type: "InstanceData"},
			AnnotationArgLight:         {Source: light.GPULightUniformSource, Type: "LightUniform"},
			AnnotationArgShadowUniform: {Source: light.GPUShadowUniformSource, Type: "ShadowUniform"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[AnnotationArg]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @pcss:include argument %q", i+1, a.Args[0])
			}
			// a struct declared twice is a WGSL redefinition error
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			key := structTypeKey(a.Args[2])
			if !included[key] {
				return "", fmt.Errorf("line %d: @pcss:group references %q before it is included", i+1, key)
			}
			wgslType := p.structRegistry[key].Type
			if key != a.Args[2] {
				wgslType = fmt.Sprintf("array<%s>", wgslType)
			}

			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
