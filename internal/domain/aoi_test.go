package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAOI() *AOIFeature {
	return &AOIFeature{
		Type:       "Feature",
		Properties: AOIProperties{Name: "Heidelberg", ID: "heidelberg"},
		Geometry: MultiPolygon{
			Type: "MultiPolygon",
			Coordinates: [][][][]float64{{{
				{8.66, 49.42}, {8.66, 49.41}, {8.67, 49.41}, {8.67, 49.42}, {8.66, 49.42},
			}}},
		},
	}
}

func TestAOIFeatureValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AOIFeature)
		wantErr error
	}{
		{
			name:    "valid feature",
			mutate:  func(f *AOIFeature) {},
			wantErr: nil,
		},
		{
			name:    "wrong feature type",
			mutate:  func(f *AOIFeature) { f.Type = "FeatureCollection" },
			wantErr: ErrInvalidFeatureType,
		},
		{
			name:    "wrong geometry type",
			mutate:  func(f *AOIFeature) { f.Geometry.Type = "Polygon" },
			wantErr: ErrInvalidGeometryType,
		},
		{
			name:    "empty coordinates",
			mutate:  func(f *AOIFeature) { f.Geometry.Coordinates = nil },
			wantErr: ErrEmptyGeometry,
		},
		{
			name: "open ring",
			mutate: func(f *AOIFeature) {
				f.Geometry.Coordinates[0][0][4] = []float64{8.99, 49.99}
			},
			wantErr: ErrOpenRing,
		},
		{
			name: "too few positions",
			mutate: func(f *AOIFeature) {
				f.Geometry.Coordinates[0][0] = f.Geometry.Coordinates[0][0][:3]
			},
			wantErr: ErrShortRing,
		},
		{
			name:    "missing name",
			mutate:  func(f *AOIFeature) { f.Properties.Name = "" },
			wantErr: ErrEmptyAOIName,
		},
		{
			name:    "missing id",
			mutate:  func(f *AOIFeature) { f.Properties.ID = "" },
			wantErr: ErrEmptyAOIID,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := validAOI()
			tc.mutate(f)

			err := f.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestAOIFeatureCanonical(t *testing.T) {
	t.Parallel()

	t.Run("rounds coordinates to fixed precision", func(t *testing.T) {
		t.Parallel()

		f := validAOI()
		f.Geometry.Coordinates[0][0][0] = []float64{8.660000049, 49.419999951}

		c := f.Canonical()
		assert.Equal(t, []float64{8.66, 49.42}, c.Geometry.Coordinates[0][0][0])
	})

	t.Run("does not mutate the original", func(t *testing.T) {
		t.Parallel()

		f := validAOI()
		f.Geometry.Coordinates[0][0][0] = []float64{8.6600000049, 49.42}

		_ = f.Canonical()
		assert.Equal(t, 8.6600000049, f.Geometry.Coordinates[0][0][0][0])
	})

	t.Run("equivalent features canonicalize equally", func(t *testing.T) {
		t.Parallel()

		a := validAOI()
		b := validAOI()
		b.Geometry.Coordinates[0][0][1] = []float64{8.6600000001, 49.4099999999}

		require.NoError(t, a.Validate())
		require.NoError(t, b.Validate())
		assert.Equal(t, a.Canonical(), b.Canonical())
	})
}
