package domain

import (
	"errors"
	"testing"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to VendorStatus
		want     bool
	}{
		{VendorSubmitted, VendorDocumentsPending, true},
		{VendorSubmitted, VendorRiskAssessment, true},
		{VendorUnderReview, VendorDocumentsPending, false},
		{VendorRiskAssessment, VendorRiskAssessment, false},
		{VendorApproved, VendorOnboardingComplete, true},
		{VendorRejected, VendorOnboardingComplete, false},
		{VendorSubmitted, VendorOnboardingComplete, false},
		{VendorApproved, VendorUnderReview, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionVendorRejectsDecisionTargets(t *testing.T) {
	err := TransitionVendor(VendorRiskAssessment, VendorApproved)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDecideVendor(t *testing.T) {
	st, err := DecideVendor(VendorRiskAssessment, true)
	if err != nil || st != VendorApproved {
		t.Fatalf("approve: got %s, %v", st, err)
	}
	st, err = DecideVendor(VendorSubmitted, false)
	if err != nil || st != VendorRejected {
		t.Fatalf("reject: got %s, %v", st, err)
	}
	for _, from := range []VendorStatus{VendorApproved, VendorRejected, VendorOnboardingComplete} {
		if _, err := DecideVendor(from, true); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("decide from %s: expected ErrInvalidTransition, got %v", from, err)
		}
	}
}

func TestProgressFollowsStatus(t *testing.T) {
	if VendorApproved.Progress() != 100 || VendorRejected.Progress() != 0 {
		t.Fatalf("decision progress mismatch")
	}
	prev := -1
	for _, s := range vendorChain {
		if s.Progress() <= prev {
			t.Fatalf("progress not increasing at %s", s)
		}
		prev = s.Progress()
	}
}

func TestTransitionDocument(t *testing.T) {
	ok := [][2]DocumentStatus{
		{DocumentUploaded, DocumentProcessing},
		{DocumentProcessing, DocumentExtracted},
		{DocumentProcessing, DocumentFailed},
		{DocumentExtracted, DocumentVerified},
		{DocumentFailed, DocumentProcessing},
	}
	for _, p := range ok {
		if err := TransitionDocument(p[0], p[1]); err != nil {
			t.Errorf("%s → %s: %v", p[0], p[1], err)
		}
	}
	bad := [][2]DocumentStatus{
		{DocumentUploaded, DocumentExtracted},
		{DocumentVerified, DocumentProcessing},
		{DocumentUploaded, DocumentVerified},
	}
	for _, p := range bad {
		if err := TransitionDocument(p[0], p[1]); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s → %s: expected ErrInvalidTransition, got %v", p[0], p[1], err)
		}
	}
}

func TestParseDocumentTypeAliases(t *testing.T) {
	got, err := ParseDocumentType("Insurance_Certificate")
	if err != nil || got != DocInsurance {
		t.Fatalf("got %s, %v", got, err)
	}
	var ve *ValidationError
	if _, err := ParseDocumentType("passport"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
