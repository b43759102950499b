package inventory

import (
	"io"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/CZERTAINLY/fleet/internal/model"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
)

const (
	PropPath       = "fleet:path"
	PropCommands   = "fleet:commands"
	PropStructured = "fleet:structured_logs"
	PropAvailable  = "fleet:available"
)

var version string

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		version = "unknown"
	} else {
		version = info.Main.Version
	}
}

// Entry is what fleet knows about one tool of the chain.
type Entry struct {
	Tool     model.Tool
	Path     string
	Version  string
	Commands []string
}

func (e Entry) Available() bool {
	return e.Path != ""
}

// Builder assembles a CycloneDX BOM of the tool chain.
type Builder struct {
	components []cdx.Component
	properties []cdx.Property
}

func NewBuilder() *Builder {
	return &Builder{
		// cyclone-dx JSON schema does not allow null arrays
		components: []cdx.Component{},
		properties: []cdx.Property{},
	}
}

func (b *Builder) AppendEntries(entries ...Entry) *Builder {
	for _, e := range entries {
		b.components = append(b.components, component(e))
	}
	return b
}

func (b *Builder) AppendProperties(properties ...cdx.Property) *Builder {
	b.properties = append(b.properties, properties...)
	return b
}

func (b *Builder) BOM() cdx.BOM {
	return cdx.BOM{
		JSONSchema:   "https://cyclonedx.org/schema/bom-1.6.schema.json",
		BOMFormat:    cdx.BOMFormat,
		SpecVersion:  cdx.SpecVersion1_6,
		SerialNumber: "urn:uuid:" + uuid.New().String(),
		Version:      1,
		Metadata: &cdx.Metadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Lifecycles: &[]cdx.Lifecycle{
				{Phase: cdx.LifecyclePhaseOperations},
			},
			// must not be nil, the encoder fails on an empty tools choice otherwise
			Component: &cdx.Component{
				Type:    cdx.ComponentTypeApplication,
				Name:    "fleet",
				Version: version,
				Manufacturer: &cdx.OrganizationalEntity{
					Name: "CZERTAINLY",
					URL:  &[]string{"https://www.czertainly.com"},
				},
			},
		},
		Components: &b.components,
		Properties: &b.properties,
	}
}

// AsJSON encodes the BOM as pretty printed JSON.
func (b *Builder) AsJSON(w io.Writer) error {
	bom := b.BOM()
	return cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON).SetPretty(true).Encode(&bom)
}

func component(e Entry) cdx.Component {
	spec := e.Tool.Spec()
	ref := "tool/" + spec.Binary
	if e.Version != "" {
		ref += "@" + e.Version
	}

	props := []cdx.Property{
		{Name: PropAvailable, Value: strconv.FormatBool(e.Available())},
		{Name: PropStructured, Value: strconv.FormatBool(spec.Structured)},
	}
	if e.Path != "" {
		props = append(props, cdx.Property{Name: PropPath, Value: e.Path})
	}
	if len(e.Commands) > 0 {
		props = append(props, cdx.Property{Name: PropCommands, Value: strings.Join(e.Commands, ",")})
	}

	return cdx.Component{
		BOMRef:     ref,
		Type:       cdx.ComponentTypeApplication,
		Name:       spec.Binary,
		Version:    e.Version,
		Properties: &props,
	}
}
