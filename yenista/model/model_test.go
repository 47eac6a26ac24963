package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaserSourceNames(t *testing.T) {
	for s := LS_TunicsPlus; s < NB_SOURCE; s++ {
		parsed, err := ParseLaserSource(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseLaserSource("NB_SOURCE")
	assert.Error(t, err)

	assert.False(t, NB_SOURCE.Valid(), "NB_SOURCE - счетчик, а не модель")
	assert.Equal(t, "LaserSource(7)", NB_SOURCE.String())
}

func TestParseLaserSourceIgnoresCase(t *testing.T) {
	s, err := ParseLaserSource(" t100s_hp ")
	require.NoError(t, err)
	assert.Equal(t, LS_TunicsT100s_HP, s)
}

func TestEnumRanges(t *testing.T) {
	assert.False(t, LaserInput(0).Valid())
	assert.True(t, LI_1.Valid())
	assert.True(t, LI_4.Valid())
	assert.False(t, LaserInput(5).Valid())

	assert.False(t, DE_out.Valid())
	assert.True(t, DE_5.Valid())
	assert.False(t, Detector(6).Valid())

	assert.Equal(t, int32(1), int32(LI_1))
	assert.Equal(t, int32(1), int32(DE_1))
	assert.Equal(t, ENABLE, EnableFrom(true))
	assert.Equal(t, DISABLE, EnableFrom(false))
	assert.False(t, Enable(2).Valid())
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("dBm")
	require.NoError(t, err)
	assert.Equal(t, Unit_dBm, u)

	u, err = ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, Unit_mW, u)

	_, err = ParseUnit("W")
	assert.Error(t, err)
}

func TestCT400TypeString(t *testing.T) {
	assert.Equal(t, "SMF", TypeSMF.String())
	assert.Equal(t, "PM15", TypePM15.String())
	assert.Equal(t, "CT400Type(-1)", CT400Type(-1).String())
}
