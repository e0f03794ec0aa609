package persist

import (
	"bytes"
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haiqian-MA/PyXRD/models"
)

type fixture struct {
	reg   *models.Registry
	atom  *models.Class
	link  *models.Class
	multi *models.Class
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg := models.NewRegistry()
	atom, err := reg.Register(models.ClassDef{
		Name: "Atom",
		Intel: []models.PropIntel{
			{Name: "name", Type: models.TypeUnicode, Storable: true},
			{Name: "pn", Type: models.TypeFloat, Storable: true, Refinable: true, Maximum: 1},
			{Name: "scratch", Type: models.TypeFloat},
		},
	})
	require.NoError(t, err)
	link, err := reg.Register(models.ClassDef{
		Name: "Link",
		Intel: []models.PropIntel{
			{Name: "target", Type: models.TypeObject, Storable: true},
			{Name: "prop", Type: models.TypeObject, Storable: true},
		},
	})
	require.NoError(t, err)
	multi, err := reg.Register(models.ClassDef{
		Name:     "Mode",
		Intel:    []models.PropIntel{{Name: "mode", Type: models.TypeString, Storable: true}},
		Defaults: map[string]any{"mode": models.MultiProperty{Value: "simple", Options: []any{"simple", "expanded"}}},
	})
	require.NoError(t, err)
	return fixture{reg: reg, atom: atom, link: link, multi: multi}
}

// TestProperties checks the storable view of an object.
func TestProperties(t *testing.T) {
	f := newFixture(t)
	pool := models.NewPool()

	atom, err := f.atom.New(pool, models.Args{"name": "Si", "pn": 0.5, "scratch": 3})
	require.NoError(t, err)
	link, err := f.link.New(pool, models.Args{"target": atom, "prop": []any{atom, "pn"}})
	require.NoError(t, err)

	props := Properties(atom)
	assert.Equal(t, atom.UUID(), props["uuid"])
	assert.Equal(t, "Si", props["name"])
	assert.Equal(t, 0.5, props["pn"])
	assert.Equal(t, []any{0.0, 1.0, false}, props["pn_ref_info"])
	assert.NotContains(t, props, "scratch")

	props = Properties(link)
	assert.Equal(t, atom.UUID(), props["target"])
	assert.Equal(t, []any{atom.UUID(), "pn"}, props["prop"])
}

// TestRoundTrip writes objects that refer to each other and loads them into a new
// pool, in both formats.
func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{JSON, YAML} {
		t.Run(string(format), func(t *testing.T) {
			f := newFixture(t)
			pool := models.NewPool()

			atom, err := f.atom.New(pool, models.Args{"name": "O", "pn": 0.75})
			require.NoError(t, err)
			atom.RefinementInfo("pn").Refine = true
			link, err := f.link.New(pool, models.Args{"target": atom, "prop": []any{atom, "pn"}})
			require.NoError(t, err)
			mode, err := f.multi.New(pool, models.Args{"mode": "expanded"})
			require.NoError(t, err)

			// References point forward: the link is written before its target.
			data, err := Marshal(Encode(link, atom, mode), format)
			require.NoError(t, err)
			doc, err := Unmarshal(data, format)
			require.NoError(t, err)
			assert.Equal(t, Version, doc.Version)

			loaded := models.NewPool()
			objs, err := NewDecoder(f.reg, loaded).DecodeDocument(doc)
			require.NoError(t, err)
			require.Len(t, objs, 3)

			newLink, newAtom, newMode := objs[0], objs[1], objs[2]
			assert.Equal(t, link.UUID(), newLink.UUID())
			assert.Equal(t, atom.UUID(), newAtom.UUID())
			assert.NotSame(t, atom, newAtom)
			assert.Same(t, newAtom, newLink.Get("target"))
			assert.Equal(t, []any{newAtom, "pn"}, newLink.Get("prop"))

			assert.Equal(t, "O", newAtom.GetString("name"))
			assert.Equal(t, 0.75, newAtom.GetFloat("pn"))
			info := newAtom.RefinementInfo("pn")
			require.NotNil(t, info)
			assert.True(t, info.Refine)
			assert.Equal(t, 1.0, info.Maximum)

			assert.Equal(t, "expanded", newMode.Get("mode"))
			assert.Equal(t, 3, loaded.Len())
			runtime.KeepAlive(objs)
		})
	}
}

// TestUnresolvedReference clears references to identifiers that are not loaded.
func TestUnresolvedReference(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	doc := Document{Version: Version, Objects: []Record{
		{Type: "Link", Properties: map[string]any{"uuid": "l1", "target": "missing", "prop": []any{"gone", "pn"}}},
	}}
	d := NewDecoder(f.reg, models.NewPool())
	d.Logger = log
	objs, err := d.DecodeDocument(doc)
	require.NoError(t, err)
	require.Len(t, objs, 1)

	assert.Nil(t, objs[0].Get("target"))
	assert.Nil(t, objs[0].Get("prop"))
	assert.Empty(t, objs[0].TakePending())
	assert.Equal(t, 2, strings.Count(logs.String(), "unresolved reference"))
}

// TestResolveOnce checks that a second pass finds nothing left to resolve.
func TestResolveOnce(t *testing.T) {
	f := newFixture(t)
	pool := models.NewPool()
	d := NewDecoder(f.reg, pool)

	link, err := d.Decode(Record{Type: "Link", Properties: map[string]any{"target": "a1"}})
	require.NoError(t, err)
	atom, err := d.Decode(Record{Type: "Atom", Properties: map[string]any{"uuid": "a1"}})
	require.NoError(t, err)

	assert.Nil(t, link.Get("target"), "references stay pending until resolution")
	assert.Equal(t, 0, ResolveReferences(pool, nil, link, atom))
	assert.Same(t, atom, link.Get("target"))
	assert.Equal(t, 0, ResolveReferences(pool, nil, link, atom))
	assert.Same(t, atom, link.Get("target"))
}

// TestDecodeErrors checks that shape errors propagate.
func TestDecodeErrors(t *testing.T) {
	f := newFixture(t)
	d := NewDecoder(f.reg, models.NewPool())

	_, err := d.Decode(Record{Type: "Nope"})
	assert.ErrorIs(t, err, models.ErrUnknownClass)

	_, err = d.Decode(Record{Type: "Atom", Properties: map[string]any{"colour": "red"}})
	assert.ErrorIs(t, err, models.ErrUnknownProperty)

	_, err = d.Decode(Record{Type: "Atom", Properties: map[string]any{"pn_ref_info": "not json"}})
	assert.Error(t, err)

	_, err = d.DecodeDocument(Document{Objects: []Record{{Type: "Atom"}, {Type: "Nope"}}})
	assert.ErrorContains(t, err, "object 1")
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"version": 99, "objects": []}`), JSON)
	assert.Error(t, err)
}
