package attack

import (
	"testing"

	"nids-alert-engine/internal/model"
)

func TestClassify_PortTable(t *testing.T) {
	cases := []struct {
		name string
		port int
		want string
	}{
		{"ssh", 22, LabelSSHBruteForce},
		{"ssh alt", 2222, LabelSSHBruteForce},
		{"tomcat claims 443 before phishing and ransomware", 443, LabelTomcat},
		{"reverse shell", 4444, LabelReverseShell},
		{"backdoor claims 31337 before malware c2", 31337, LabelBackdoor},
		{"rdp claims 3389 before remote access", 3389, LabelRDPBruteForce},
		{"telnet", 23, LabelTelnetBruteForce},
		{"vnc", 5901, LabelVNCAttack},
		{"database", 3306, LabelDatabaseAttack},
		{"mail", 25, LabelMailServerAttack},
		{"dns", 53, LabelDNSAttack},
		{"smb", 445, LabelSMBAttack},
		{"web", 8081, LabelWebAttack},
		{"malware c2", 1337, LabelMalwareC2},
		{"phishing range", 8001, LabelPhishingAttack},
		{"ransomware", 10443, LabelRansomware},
		{"crypto mining", 3333, LabelCryptoMining},
		{"iot", 1883, LabelIoTAttack},
		{"ics modbus", 502, LabelICSAttack},
		{"nfs", 2049, LabelFileSharingAttack},
		{"remote access range", 3395, LabelRemoteAccess},
		{"minecraft c2", 25565, LabelGamingC2},
		{"custom app", 9005, LabelCustomAppAttack},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.port, model.ProtocolTCP, "", 0)
			if got != tc.want {
				t.Errorf("Classify(%d, TCP) = %q, want %q", tc.port, got, tc.want)
			}
		})
	}
}

func TestClassify_SYNFlood(t *testing.T) {
	got := Classify(50000, model.ProtocolTCP, "SYNONLY", 0)
	if got != LabelSYNFlood {
		t.Errorf("Classify(unmapped port, TCP, SYNONLY) = %q, want %q", got, LabelSYNFlood)
	}
	// Table entries win over the flag heuristic.
	if got := Classify(22, model.ProtocolTCP, "SYNONLY", 0); got != LabelSSHBruteForce {
		t.Errorf("Classify(22, TCP, SYNONLY) = %q, want %q", got, LabelSSHBruteForce)
	}
	// UDP never yields a SYN flood.
	if got := Classify(50000, model.ProtocolUDP, "SYNONLY", 0); got != "" {
		t.Errorf("Classify(unmapped port, UDP, SYNONLY) = %q, want empty", got)
	}
}

func TestClassify_PortScanFallback(t *testing.T) {
	if got := Classify(50000, model.ProtocolTCP, "", 6); got != LabelPortScan {
		t.Errorf("Classify with history 6 = %q, want %q", got, LabelPortScan)
	}
	if got := Classify(50000, model.ProtocolTCP, "", 2); got != "" {
		t.Errorf("Classify with history 2 = %q, want empty", got)
	}
}

func TestClassify_RequiresKnownProtocol(t *testing.T) {
	if got := Classify(22, model.ProtocolICMP, "", 10); got != "" {
		t.Errorf("Classify(22, ICMP) = %q, want empty", got)
	}
	if got := Classify(22, "", "", 10); got != "" {
		t.Errorf("Classify(22, unset protocol) = %q, want empty", got)
	}
}

func TestClassify_NoPort(t *testing.T) {
	if got := Classify(0, model.ProtocolTCP, "SYNONLY", 10); got != "" {
		t.Errorf("Classify(no port) = %q, want empty", got)
	}
}
