package liberty

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleLib = `library (stdcells_tt_1p0v_25c) {
  delay_model : table_lookup;
  time_unit : "1ns";
  voltage_unit : "1V";
  capacitive_load_unit (1,pf);
  nom_temperature : 25;
}`

func TestTimeUnit(t *testing.T) {
	unit, ok := TimeUnit(sampleLib)
	require.True(t, ok)
	require.Equal(t, "1ns", unit)
}

func TestTimeUnit_Missing(t *testing.T) {
	_, ok := TimeUnit("library (x) { }")
	require.False(t, ok)
}

func TestCapUnit(t *testing.T) {
	unit, ok := CapUnit(sampleLib)
	require.True(t, ok)
	require.Equal(t, "1pf", unit)
}

func TestCapUnit_SpacedAndQuoted(t *testing.T) {
	unit, ok := CapUnit(`  capacitive_load_unit ( 1 , "ff" ) ;`)
	require.True(t, ok)
	require.Equal(t, "1ff", unit)
}

func TestCapUnit_Missing(t *testing.T) {
	_, ok := CapUnit("library (x) { }")
	require.False(t, ok)
}
