package errors_test

import (
	"fmt"

	"github.com/agentstation/permitmap/pkg/errors"
)

// Example demonstrates classifying a connector failure.
func Example() {
	err := errors.NewNetworkError("austin", "https://data.austintexas.gov", 503, "service unavailable")

	fmt.Println(errors.Kind(err))
	// Output: network
}

// Example_rateLimit shows how rate limiting surfaces through errors.Is.
func Example_rateLimit() {
	err := errors.NewNetworkError("seattle", "https://data.seattle.gov", 429, "too many requests")

	if errors.IsRateLimited(err) {
		fmt.Println("rate limited - retry later")
	}
	// Output: rate limited - retry later
}

// Example_validation shows a record-level validation failure.
func Example_validation() {
	err := &errors.ValidationError{Field: "address", RecordID: "BP-2024-001", Message: "required"}

	fmt.Println(err)
	// Output: validation failed for record BP-2024-001 field address: required
}
