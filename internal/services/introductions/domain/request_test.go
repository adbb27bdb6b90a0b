package domain

import "testing"

func TestComputeDisplayStatusIsTotal(t *testing.T) {
	approvals := []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalDeclined, ApprovalStatus("")}
	consents := []ConsentStatus{ConsentNotApplicable, ConsentPending, ConsentConsented, ConsentDeclined}

	for _, approval := range approvals {
		for _, consent := range consents {
			got := ComputeDisplayStatus(approval, consent)
			switch got {
			case DisplayPending, DisplayHubApproved, DisplayConnected, DisplayDeclined:
			default:
				t.Fatalf("ComputeDisplayStatus(%q, %q) = %q, not one of the four statuses", approval, consent, got)
			}
		}
	}
}

func TestComputeDisplayStatusReachableStates(t *testing.T) {
	tests := []struct {
		approval ApprovalStatus
		consent  ConsentStatus
		want     DisplayStatus
	}{
		{ApprovalPending, ConsentNotApplicable, DisplayPending},
		{ApprovalApproved, ConsentPending, DisplayHubApproved},
		{ApprovalApproved, ConsentConsented, DisplayConnected},
		{ApprovalDeclined, ConsentNotApplicable, DisplayDeclined},
		{ApprovalApproved, ConsentDeclined, DisplayDeclined},
	}
	for _, tt := range tests {
		if got := ComputeDisplayStatus(tt.approval, tt.consent); got != tt.want {
			t.Fatalf("ComputeDisplayStatus(%q, %q) = %q, want %q", tt.approval, tt.consent, got, tt.want)
		}
	}
}

func TestDeclineWinsOverEverything(t *testing.T) {
	// A declined decision field yields Declined no matter what the other
	// field reads, reachable or not.
	for _, consent := range []ConsentStatus{ConsentNotApplicable, ConsentPending, ConsentConsented, ConsentDeclined} {
		if got := ComputeDisplayStatus(ApprovalDeclined, consent); got != DisplayDeclined {
			t.Fatalf("ComputeDisplayStatus(declined, %q) = %q, want Declined", consent, got)
		}
	}
	for _, approval := range []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalDeclined} {
		if got := ComputeDisplayStatus(approval, ConsentDeclined); got != DisplayDeclined {
			t.Fatalf("ComputeDisplayStatus(%q, declined) = %q, want Declined", approval, got)
		}
	}
}

func TestParseDisplayStatus(t *testing.T) {
	tests := []struct {
		label string
		want  DisplayStatus
	}{
		{"pending", DisplayPending},
		{"Pending", DisplayPending},
		{"HubApproved", DisplayHubApproved},
		{"hub_approved", DisplayHubApproved},
		{"connected", DisplayConnected},
		{"DECLINED", DisplayDeclined},
		{"  declined  ", DisplayDeclined},
		{"unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseDisplayStatus(tt.label); got != tt.want {
			t.Fatalf("ParseDisplayStatus(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		name    string
		request IntroductionRequest
		want    bool
	}{
		{"pending", IntroductionRequest{ApprovalStatus: ApprovalPending, ConsentStatus: ConsentNotApplicable}, false},
		{"approved awaiting consent", IntroductionRequest{ApprovalStatus: ApprovalApproved, ConsentStatus: ConsentPending}, false},
		{"hub declined", IntroductionRequest{ApprovalStatus: ApprovalDeclined, ConsentStatus: ConsentNotApplicable}, true},
		{"connected", IntroductionRequest{ApprovalStatus: ApprovalApproved, ConsentStatus: ConsentConsented}, true},
		{"target declined", IntroductionRequest{ApprovalStatus: ApprovalApproved, ConsentStatus: ConsentDeclined}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.request.Terminal(); got != tt.want {
				t.Fatalf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentity(t *testing.T) {
	identity := NormalizeIdentity(Identity{
		UserID: "  user-1  ",
		Profile: Profile{
			Name:    "  Sam Ortiz ",
			Company: " Northwind ",
		},
	})
	if identity.UserID != "user-1" || identity.Profile.Name != "Sam Ortiz" || identity.Profile.Company != "Northwind" {
		t.Fatalf("NormalizeIdentity() = %+v", identity)
	}

	if !(Identity{}).IsZero() {
		t.Fatal("empty identity should be zero")
	}
	if (Identity{Profile: Profile{Name: "Someone"}}).IsZero() {
		t.Fatal("named identity should not be zero")
	}
}

func TestValidUrgency(t *testing.T) {
	for _, urgency := range []Urgency{UrgencyLow, UrgencyNormal, UrgencyHigh} {
		if !ValidUrgency(urgency) {
			t.Fatalf("ValidUrgency(%q) = false", urgency)
		}
	}
	if ValidUrgency(Urgency("critical")) || ValidUrgency(Urgency("")) {
		t.Fatal("unexpected urgency accepted")
	}
}
