package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		checkLayout func(t *testing.T, l *BarLayout)
	}{
		{
			name: "three sections",
			input: `<bar>
				<start><workspaces /><window /></start>
				<center><clock /></center>
				<end><battery /></end>
			</bar>`,
			checkLayout: func(t *testing.T, l *BarLayout) {
				require.Len(t, l.Start, 2)
				assert.Equal(t, ElementTypeWorkspaces, l.Start[0].Type)
				assert.Equal(t, ElementTypeWindow, l.Start[1].Type)
				require.Len(t, l.Center, 1)
				assert.Equal(t, ElementTypeClock, l.Center[0].Type)
				require.Len(t, l.End, 1)
				assert.Equal(t, ElementTypeBattery, l.End[0].Type)
			},
		},
		{
			name: "group with children",
			input: `<bar>
				<end>
					<group class="system">
						<network />
						<volume />
					</group>
				</end>
			</bar>`,
			checkLayout: func(t *testing.T, l *BarLayout) {
				require.Len(t, l.End, 1)
				group := l.End[0]
				assert.Equal(t, ElementTypeGroup, group.Type)
				assert.Equal(t, "system", group.Attributes["class"])
				require.Len(t, group.Children, 2)
				assert.Equal(t, ElementTypeNetwork, group.Children[0].Type)
			},
		},
		{
			name:  "media and notification center",
			input: `<bar><end><media /><notifications /></end></bar>`,
			checkLayout: func(t *testing.T, l *BarLayout) {
				require.Len(t, l.End, 2)
				assert.Equal(t, ElementTypeMedia, l.End[0].Type)
				assert.Equal(t, ElementTypeNotifications, l.End[1].Type)
			},
		},
		{
			name:  "height attribute",
			input: `<bar height="32px"></bar>`,
			checkLayout: func(t *testing.T, l *BarLayout) {
				assert.Equal(t, 32, l.Height)
				assert.Empty(t, l.Start)
			},
		},
		{
			name:  "switcher provider",
			input: `<bar><end><switcher provider="kube" /></end></bar>`,
			checkLayout: func(t *testing.T, l *BarLayout) {
				require.Len(t, l.End, 1)
				assert.Equal(t, "kube", l.End[0].Attributes["provider"])
			},
		},
		{
			name:    "switcher without provider",
			input:   `<bar><end><switcher /></end></bar>`,
			wantErr: true,
		},
		{
			name:    "unknown element",
			input:   `<bar><start><tray /></start></bar>`,
			wantErr: true,
		},
		{
			name:    "unknown section",
			input:   `<bar><middle><clock /></middle></bar>`,
			wantErr: true,
		},
		{
			name:    "children on a leaf widget",
			input:   `<bar><start><clock><battery /></clock></start></bar>`,
			wantErr: true,
		},
		{
			name:    "wrong root",
			input:   `<popup></popup>`,
			wantErr: true,
		},
		{
			name:    "no root",
			input:   ``,
			wantErr: true,
		},
		{
			name:    "unterminated xml",
			input:   `<bar><start>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseTemplateString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.checkLayout != nil {
				tt.checkLayout(t, l)
			}
		})
	}
}

func TestBarLayout_Filter(t *testing.T) {
	l := DefaultLayout().Filter(func(e LayoutElement) bool {
		return e.Type != ElementTypeBattery && e.Type != ElementTypeVolume && e.Type != ElementTypeNetwork
	})

	assert.Len(t, l.Start, 2)
	assert.Len(t, l.Center, 1)
	// The system group is empty once its children are filtered out.
	require.Len(t, l.End, 4)
	assert.Equal(t, ElementTypeMedia, l.End[0].Type)
	assert.Equal(t, ElementTypeSwitcher, l.End[1].Type)
	assert.Equal(t, ElementTypeSwitcher, l.End[2].Type)
	assert.Equal(t, ElementTypeNotifications, l.End[3].Type)

	// The source layout is untouched.
	assert.Len(t, DefaultLayout().End, 5)
}

func TestBarLayout_Switchers(t *testing.T) {
	l, err := ParseTemplateString(`<bar>
		<start><switcher provider="a" /></start>
		<end><group><switcher provider="b" /></group></end>
	</bar>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l.Switchers())
}

func TestEmbeddedTemplates(t *testing.T) {
	names := ListEmbeddedTemplates()
	assert.ElementsMatch(t, []string{"default", "compact"}, names)

	for _, name := range names {
		l, ok := GetEmbeddedTemplate(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, l.Start, name)
	}

	_, ok := GetEmbeddedTemplate("missing")
	assert.False(t, ok)
}

func TestEmbeddedDefaultMatchesDefaultLayout(t *testing.T) {
	l, ok := GetEmbeddedTemplate("default")
	require.True(t, ok)

	def := DefaultLayout()
	assert.Equal(t, def.Switchers(), l.Switchers())
	require.Len(t, l.End, len(def.End))
	for i := range def.End {
		assert.Equal(t, def.End[i].Type, l.End[i].Type)
	}
	assert.Len(t, l.End[3].Children, len(def.End[3].Children))
}

func TestResolve(t *testing.T) {
	t.Run("empty selects default", func(t *testing.T) {
		l, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, []string{"kube", "gcloud"}, l.Switchers())
	})

	t.Run("bundled name", func(t *testing.T) {
		l, err := Resolve("compact")
		require.NoError(t, err)
		assert.Equal(t, 24, l.Height)
	})

	t.Run("unknown bundled name", func(t *testing.T) {
		_, err := Resolve("fancy")
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bar.xml")
		require.NoError(t, os.WriteFile(path, []byte(`<bar><center><clock /></center></bar>`), 0o644))

		l, err := Resolve(path)
		require.NoError(t, err)
		require.Len(t, l.Center, 1)
		assert.Equal(t, ElementTypeClock, l.Center[0].Type)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "nope.xml"))
		assert.Error(t, err)
	})
}
