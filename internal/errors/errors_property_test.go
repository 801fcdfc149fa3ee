//go:build property

package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestErrorCollectorProperties validates error collection properties
func TestErrorCollectorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: Error collector should handle concurrent reports safely
	properties.Property("concurrent report addition is thread-safe", prop.ForAll(
		func(goroutineCount int, reportsPerGoroutine int) bool {
			collector := NewErrorCollector()

			var wg sync.WaitGroup
			for g := 0; g < goroutineCount; g++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for e := 0; e < reportsPerGoroutine; e++ {
						collector.Add(Report{
							Event: "app:error:render",
							Page:  fmt.Sprintf("page_%d_%d", goroutineID, e),
							Err:   fmt.Errorf("error from goroutine %d, iteration %d", goroutineID, e),
						})
					}
				}(g)
			}
			wg.Wait()

			return len(collector.GetReports()) == goroutineCount*reportsPerGoroutine
		},
		gen.IntRange(1, 10),
		gen.IntRange(1, 20),
	))

	// Property: Wrapping preserves the root cause
	properties.Property("wrap preserves root cause", prop.ForAll(
		func(message string, depth int) bool {
			root := fmt.Errorf("%s", message)
			var err error = root
			for i := 0; i < depth; i++ {
				err = Wrap(err, ErrorTypeRender, ErrCodeRenderFailed, "layer")
			}
			return ExtractCause(err) == root
		},
		gen.AlphaString(),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}
