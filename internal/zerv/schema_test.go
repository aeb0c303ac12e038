package zerv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaValidation(t *testing.T) {
	tests := []struct {
		name      string
		core      []Component
		extraCore []Component
		build     []Component
		wantCode  string
		wantMsg   string
	}{
		{
			name:     "empty schema",
			wantCode: ErrSchemaEmpty,
			wantMsg:  "schema must contain at least one component",
		},
		{
			name:     "secondary in core",
			core:     []Component{F(VarMajor), F(VarPost)},
			wantCode: ErrSecondaryInCore,
			wantMsg:  "secondary component post must be in extra_core section",
		},
		{
			name:      "primary in extra_core",
			core:      []Component{F(VarMajor)},
			extraCore: []Component{F(VarMinor)},
			wantCode:  ErrPrimaryInExtraCore,
			wantMsg:   "primary component minor must be in core section",
		},
		{
			name:     "secondary in build",
			core:     []Component{F(VarMajor)},
			build:    []Component{F(VarDev)},
			wantCode: ErrFieldInBuild,
		},
		{
			name:     "primary out of order",
			core:     []Component{F(VarPatch), F(VarMajor)},
			wantCode: ErrPrimaryOrder,
			wantMsg:  "primary components must be in order",
		},
		{
			name:     "duplicate primary",
			core:     []Component{F(VarMajor), F(VarMajor)},
			wantCode: ErrDuplicatePrimary,
		},
		{
			name:      "duplicate secondary",
			core:      []Component{F(VarMajor)},
			extraCore: []Component{F(VarPost), F(VarDev), F(VarPost)},
			wantCode:  ErrDuplicateSecondary,
		},
		{
			name:     "invalid timestamp pattern",
			core:     []Component{Timestamp{Pattern: "YYYY-MM"}},
			wantCode: ErrInvalidTimestamp,
		},
		{
			name:     "placement checked before ordering",
			core:     []Component{F(VarPatch), F(VarMajor), F(VarEpoch)},
			wantCode: ErrSecondaryInCore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.core, tt.extraCore, tt.build, nil)
			require.Error(t, err)
			require.True(t, IsSchemaError(err))

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantCode, se.Code)
			if tt.wantMsg != "" {
				assert.Contains(t, se.Message, tt.wantMsg)
			}
		})
	}
}

func TestNewSchemaValid(t *testing.T) {
	tests := []struct {
		name      string
		core      []Component
		extraCore []Component
		build     []Component
	}{
		{"default shape", []Component{F(VarMajor), F(VarMinor), F(VarPatch)}, []Component{F(VarEpoch), F(VarPreRelease), F(VarPost), F(VarDev)}, nil},
		{"partial primaries in order", []Component{F(VarMajor), F(VarPatch)}, nil, nil},
		{"context anywhere", []Component{F(VarDistance)}, []Component{F(VarDirty), F(VarDirty)}, []Component{F(VarBumpedBranch), F(CustomVar("build.id"))}},
		{"secondaries any order", []Component{Literal{Text: "v"}}, []Component{F(VarDev), F(VarEpoch)}, nil},
		{"build only", nil, nil, []Component{Integer{Value: 1}}},
		{"calver", []Component{Timestamp{Pattern: "YYYY"}, Timestamp{Pattern: "0M"}, F(VarPatch)}, nil, nil},
		{"raw strftime", []Component{Timestamp{Pattern: "%Y.%m"}}, nil, nil},
		{"preset", nil, nil, []Component{Timestamp{Pattern: PresetCompactDateTime}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchema(tt.core, tt.extraCore, tt.build, nil)
			require.NoError(t, err)
			assert.True(t, s.Precedence().IsDefault())
		})
	}
}

func TestSchemaSettersAreAtomic(t *testing.T) {
	s := MustSchema([]Component{F(VarMajor), F(VarMinor)}, []Component{F(VarPost)}, nil, nil)

	err := s.SetCore([]Component{F(VarMinor), F(VarMajor)})
	require.Error(t, err)
	assert.Equal(t, []Component{F(VarMajor), F(VarMinor)}, s.Core())

	err = s.PushExtraCore(F(VarPost))
	require.Error(t, err)
	assert.Equal(t, []Component{F(VarPost)}, s.ExtraCore())

	err = s.SetCore(nil)
	require.NoError(t, err, "extra_core keeps the schema non-empty")
	assert.Empty(t, s.Core())

	err = s.SetExtraCore(nil)
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrSchemaEmpty, se.Code)
	assert.Equal(t, []Component{F(VarPost)}, s.ExtraCore())
}

func TestSchemaPush(t *testing.T) {
	s := MustSchema([]Component{F(VarMajor)}, nil, nil, nil)

	require.NoError(t, s.PushCore(F(VarMinor)))
	require.NoError(t, s.PushExtraCore(F(VarPreRelease)))
	require.NoError(t, s.PushBuild(Literal{Text: "linux"}))

	assert.Equal(t, []Component{F(VarMajor), F(VarMinor)}, s.Core())
	assert.Equal(t, []Component{F(VarPreRelease)}, s.ExtraCore())
	assert.Equal(t, []Component{Literal{Text: "linux"}}, s.Build())

	err := s.PushBuild(F(VarMajor))
	require.Error(t, err)
	assert.Len(t, s.Build(), 1)
}

func TestSchemaAccessorsReturnCopies(t *testing.T) {
	s := MustSchema([]Component{F(VarMajor)}, nil, nil, nil)
	core := s.Core()
	core[0] = F(VarPost)
	assert.Equal(t, []Component{F(VarMajor)}, s.Core())
}

func TestSchemaPrecedence(t *testing.T) {
	s := MustSchema([]Component{F(VarMajor)}, nil, nil, []Precedence{PrecedenceMajor, PrecedenceDev})
	assert.Equal(t, 2, s.Precedence().Len())
	assert.False(t, s.Precedence().IsDefault())

	err := s.SetPrecedence([]Precedence{PrecedenceMajor, PrecedenceMajor})
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrInvalidPrecedence, se.Code)
	assert.Equal(t, []Precedence{PrecedenceMajor, PrecedenceDev}, s.Precedence().List())
}

func TestSchemaEqualAndClone(t *testing.T) {
	a := MustSchema([]Component{F(VarMajor)}, []Component{F(VarDev)}, []Component{Literal{Text: "x"}}, nil)
	b := a.Clone()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.PushBuild(Integer{Value: 2}))
	assert.False(t, a.Equal(b))
	assert.Len(t, a.Build(), 1)
}

func TestParseSection(t *testing.T) {
	for name, want := range map[string]Section{
		"core":       SectionCore,
		"extra_core": SectionExtraCore,
		"extra-core": SectionExtraCore,
		"build":      SectionBuild,
	} {
		got, err := ParseSection(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSection("meta")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestSchemaErrorFormat(t *testing.T) {
	_, err := NewSchema([]Component{F(VarPatch), F(VarMajor)}, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `[E105] core[1] var("major")`)
}
