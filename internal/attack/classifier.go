// Package attack infers human-meaningful attack categories from destination
// port and protocol heuristics when the upstream model supplies no label.
package attack

import "nids-alert-engine/internal/model"

// Attack-type labels produced by the classifier.
const (
	LabelSSHBruteForce     = "SSH Brute Force"
	LabelTomcat            = "Tomcat"
	LabelReverseShell      = "Reverse Shell"
	LabelBackdoor          = "Backdoor"
	LabelRDPBruteForce     = "RDP Brute Force"
	LabelTelnetBruteForce  = "Telnet Brute Force"
	LabelVNCAttack         = "VNC Attack"
	LabelDatabaseAttack    = "Database Attack"
	LabelMailServerAttack  = "Mail Server Attack"
	LabelDNSAttack         = "DNS Attack"
	LabelSMBAttack         = "SMB Attack"
	LabelWebAttack         = "Web Attack"
	LabelMalwareC2         = "Malware C2"
	LabelPhishingAttack    = "Phishing Attack"
	LabelRansomware        = "Ransomware"
	LabelCryptoMining      = "Crypto Mining"
	LabelIoTAttack         = "IoT Attack"
	LabelICSAttack         = "ICS Attack"
	LabelFileSharingAttack = "File Sharing Attack"
	LabelRemoteAccess      = "Remote Access Attack"
	LabelGamingC2          = "Gaming C2"
	LabelCustomAppAttack   = "Custom App Attack"
	LabelSYNFlood          = "SYN Flood"
	LabelPortScan          = "Port Scan"
)

type portGroup struct {
	label string
	ports []int
}

// portGroups is evaluated top to bottom, first match wins. The order is
// load-bearing: several later groups repeat ports claimed by earlier ones
// (443 in Tomcat vs Phishing/Ransomware, 31337 in Backdoor vs Malware C2,
// 3389 in RDP vs Remote Access), making those later entries unreachable for
// the shared ports. Reordering the table changes which label wins, so keep
// it as-is.
var portGroups = []portGroup{
	{LabelSSHBruteForce, []int{22, 2222, 2200, 2022}},
	{LabelTomcat, []int{80, 443, 8080, 8180, 8009, 8443}},
	{LabelReverseShell, []int{4444, 4445, 5555, 6666, 7777, 8888, 9999}},
	{LabelBackdoor, []int{21, 6200, 31337, 12345, 54321}},
	{LabelRDPBruteForce, []int{3389, 3388, 3390}},
	{LabelTelnetBruteForce, []int{23, 2323, 2300}},
	{LabelVNCAttack, []int{5900, 5901, 5902, 5903, 5904, 5905}},
	{LabelDatabaseAttack, []int{1433, 3306, 5432, 1521, 27017, 6379}},
	{LabelMailServerAttack, []int{25, 110, 143, 993, 995, 587, 465}},
	{LabelDNSAttack, []int{53, 5353}},
	{LabelSMBAttack, []int{139, 445, 135}},
	{LabelWebAttack, []int{8081, 8082, 8083, 8084, 8085, 8086, 8087, 8088, 8089, 8090, 8443, 9443}},
	{LabelMalwareC2, []int{1337, 31337, 12345, 54321, 6666, 6667, 6668, 6669, 7000, 7001, 7002}},
	{LabelPhishingAttack, []int{80, 443, 8000, 8001, 8002, 8003, 8004, 8005, 8006, 8007, 8008, 8009, 8010}},
	{LabelRansomware, []int{443, 8443, 9443, 10443, 11443, 12443, 13443, 14443, 15443}},
	{LabelCryptoMining, []int{3333, 4444, 5555, 7777, 8888, 9999, 14444, 15555, 16666, 17777, 18888, 19999}},
	{LabelIoTAttack, []int{1883, 8883, 5683, 5684, 1884, 1885, 1886, 1887, 1888, 1889, 1890}},
	{LabelICSAttack, []int{502, 503, 504, 102, 44818, 47808, 20000, 20001, 20002, 20003, 20004, 20005}},
	{LabelFileSharingAttack, []int{2049, 111, 2048, 2047, 2046, 2045, 2044, 2043, 2042, 2041, 2040}},
	{LabelRemoteAccess, []int{3389, 3388, 3390, 3391, 3392, 3393, 3394, 3395, 3396, 3397, 3398, 3399}},
	{LabelGamingC2, []int{25565, 25566, 25567, 25568, 25569, 25570, 7777, 7778, 7779, 7780, 7781}},
	{LabelCustomAppAttack, []int{9000, 9001, 9002, 9003, 9004, 9005, 9006, 9007, 9008, 9009, 9010}},
}

// portScanHistoryThreshold is the recent-port-history length above which an
// otherwise unmatched attack is labeled a port scan.
const portScanHistoryThreshold = 5

// tcpFlagsSYNOnly is the flag pattern the feature extractor reports for
// SYN-without-ACK traffic.
const tcpFlagsSYNOnly = "SYNONLY"

// Classify returns an attack-type label for a positive detection, or ""
// when no heuristic applies. port is the destination port (0 = unknown),
// historyLen the current length of the source IP's recent port history.
// The caller is expected to invoke this only when the upstream event
// carried no explicit label.
func Classify(port int, protocol, tcpFlags string, historyLen int) string {
	if protocol != model.ProtocolTCP && protocol != model.ProtocolUDP {
		return ""
	}

	if port != 0 {
		for _, group := range portGroups {
			for _, p := range group.ports {
				if p == port {
					return group.label
				}
			}
		}
	}

	if protocol == model.ProtocolTCP && port != 0 && tcpFlags == tcpFlagsSYNOnly {
		return LabelSYNFlood
	}

	if port != 0 && historyLen > portScanHistoryThreshold {
		return LabelPortScan
	}

	return ""
}
