package inventory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/CZERTAINLY/fleet/internal/inventory"
	"github.com/CZERTAINLY/fleet/internal/model"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/require"
)

type fakeDiscoverer struct {
	calls atomic.Int32
}

func (f *fakeDiscoverer) Version(_ context.Context, t model.Tool) string {
	f.calls.Add(1)
	return map[model.Tool]string{model.ToolDocker: "24.0.7", model.ToolMachine: "0.16.2"}[t]
}

func (f *fakeDiscoverer) Commands(_ context.Context, t model.Tool) []string {
	f.calls.Add(1)
	if t == model.ToolMachine {
		return []string{"create", "ls"}
	}
	return nil
}

type fakePaths map[model.Tool]string

func (f fakePaths) Path(t model.Tool) (string, error) {
	if p, ok := f[t]; ok {
		return p, nil
	}
	return "", model.ErrToolNotFound
}

func TestCollect(t *testing.T) {
	t.Parallel()
	d := &fakeDiscoverer{}
	entries := inventory.Collect(t.Context(), d, fakePaths{
		model.ToolDocker:  "/usr/bin/docker",
		model.ToolMachine: "/usr/local/bin/docker-machine",
	})

	require.Equal(t, []inventory.Entry{
		{Tool: model.ToolDocker, Path: "/usr/bin/docker", Version: "24.0.7"},
		{Tool: model.ToolCompose},
		{Tool: model.ToolMachine, Path: "/usr/local/bin/docker-machine", Version: "0.16.2", Commands: []string{"create", "ls"}},
	}, entries)
	// compose is not resolvable, so it is never discovered
	require.EqualValues(t, 4, d.calls.Load())
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	b := inventory.NewBuilder().
		AppendEntries(
			inventory.Entry{Tool: model.ToolDocker, Path: "/usr/bin/docker", Version: "24.0.7"},
			inventory.Entry{Tool: model.ToolCompose},
			inventory.Entry{Tool: model.ToolMachine, Path: "/usr/local/bin/docker-machine", Version: "0.16.2", Commands: []string{"create", "ls"}},
		).
		AppendProperties(cdx.Property{Name: "fleet:config", Value: "fleet.yaml"})

	var buf bytes.Buffer
	require.NoError(t, b.AsJSON(&buf))

	var bom cdx.BOM
	require.NoError(t, json.Unmarshal(buf.Bytes(), &bom))
	require.Equal(t, cdx.SpecVersion1_6, bom.SpecVersion)
	require.Regexp(t, `^urn:uuid:[0-9a-f-]{36}$`, bom.SerialNumber)
	require.NotNil(t, bom.Components)

	components := *bom.Components
	require.Len(t, components, 3)

	props := func(c cdx.Component) map[string]string {
		ret := make(map[string]string)
		for _, p := range *c.Properties {
			ret[p.Name] = p.Value
		}
		return ret
	}

	require.Equal(t, "docker", components[0].Name)
	require.Equal(t, "tool/docker@24.0.7", components[0].BOMRef)
	require.Equal(t, map[string]string{
		inventory.PropAvailable:  "true",
		inventory.PropStructured: "false",
		inventory.PropPath:       "/usr/bin/docker",
	}, props(components[0]))

	require.Equal(t, "docker-compose", components[1].Name)
	require.Equal(t, "tool/docker-compose", components[1].BOMRef)
	require.Empty(t, components[1].Version)
	require.Equal(t, "false", props(components[1])[inventory.PropAvailable])

	require.Equal(t, "docker-machine", components[2].Name)
	require.Equal(t, "true", props(components[2])[inventory.PropStructured])
	require.Equal(t, "create,ls", props(components[2])[inventory.PropCommands])
}
