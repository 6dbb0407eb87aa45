// Package testing provides a host testing framework for behaviors.
//
// # Quick Start
//
// Create a tester, mount a host, and make assertions:
//
//	func TestClock(t *testing.T) {
//	    tester := behaviortest.NewHostTesterWithT(t)
//	    host := &clockHost{Ticker: behaviors.NewTimer(10 * time.Millisecond)}
//	    if err := tester.Mount(host); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    // Wait for ticks dispatched from the timer goroutine
//	    err := tester.PumpUntil(func() bool { return host.ticks >= 2 }, time.Second)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	}
//
// # Time
//
// Timer events and render measurements read the tester's fake clock:
//
//	tester.Clock().Advance(100 * time.Millisecond)
//
// SetStep makes consecutive reads a fixed distance apart, which gives every
// measured render the same duration:
//
//	tester.Clock().SetStep(4 * time.Millisecond)
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import behaviortest "github.com/go-drift/behaviors/pkg/testing"
package testing
