package safety

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanPII(t *testing.T) {
	report := ScanPII("Contact me at jane.doe@example.com or +44 20 7946 0958. My name is Jane Doe.")

	require.True(t, report.Found())
	require.Equal(t, []string{PIIEmail, PIISelfIntro, PIIPhone}, report.Categories)
	require.Equal(t, 3, report.Matches)
	require.Contains(t, report.Warning(), "email address, personal name, phone number")
}

func TestScanPIIDetectsCardAndNationalID(t *testing.T) {
	report := ScanPII("Card 4111 1111 1111 1111 and SSN 123-45-6789.")

	require.Equal(t, []string{PIICardNumber, PIINationalID}, report.Categories)
}

func TestScanPIIIgnoresOrdinaryNumbers(t *testing.T) {
	report := ScanPII("The graph shows data from 1990 to 2020, rising by 35 percent.")

	require.False(t, report.Found())
	require.Empty(t, report.Warning())
}

func TestRedactPII(t *testing.T) {
	require.Equal(t, "Email [REDACTED:email] now", RedactPII("Email jane@example.com now", 0))
	require.Equal(t, "abcde…", RedactPII("abcdefghij", 5))
	require.Equal(t, "short", RedactPII("short", 200))
}

func TestScanPIIDetectsLinks(t *testing.T) {
	report := ScanPII("See my blog at https://jane.example.org/about for details.")

	require.Equal(t, []string{PIIURL}, report.Categories)
	require.Equal(t, "See my blog at [REDACTED:url] for details.", RedactPII("See my blog at https://jane.example.org/about for details.", 0))
}
