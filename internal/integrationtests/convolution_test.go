package integration_tests

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/morphgrid/internal/testutil"
)

func TestConvolutionLifeBlinkerOscillates(t *testing.T) {
	t.Parallel()

	// A one-shot rule stamps a three-cell line somewhere, then Conway's
	// rules run on the torus. A blinker holds exactly three live cells
	// through every generation no matter where the stamp landed.
	for _, steps := range []int{1, 2} {
		t.Run(fmt.Sprintf("steps_%d", steps), func(t *testing.T) {
			t.Parallel()

			model := fmt.Sprintf(`
			grid {
				size    = [5, 5]
				symbols = "DA"
			}

			sequence {
				one {
					in    = "DDD"
					out   = "AAA"
					steps = 1
				}
				convolution {
					neighborhood = "Moore"
					periodic     = true
					steps        = %d

					rule {
						in     = "A"
						out    = "D"
						values = "A"
						sum    = "0,1,4..8"
					}
					rule {
						in     = "D"
						out    = "A"
						values = "A"
						sum    = "3"
					}
				}
			}
			`, steps)

			result := testutil.RunModelTest(t, model)
			require.NoError(t, result.Err)

			counts := testutil.CountSymbols(result.App.Model().Grid)
			require.Equal(t, 3, counts['A'])
		})
	}
}

func TestConvolutionOvercrowdingKillsEverything(t *testing.T) {
	t.Parallel()

	model := `
	grid {
		size    = [4, 4]
		symbols = "DA"
	}

	sequence {
		prl {
			in    = "D"
			out   = "A"
			steps = 1
		}
		convolution {
			neighborhood = "Moore"
			periodic     = true

			rule {
				in     = "A"
				out    = "D"
				values = "A"
				sum    = "8"
			}
		}
	}
	`
	result := testutil.RunModelTest(t, model)
	require.NoError(t, result.Err)
	require.Equal(t, "DDDD\nDDDD\nDDDD\nDDDD\n", result.Output)
}
