// Package domain holds the mainframe knowledge-base vocabulary: error
// code patterns, JCL/VSAM/COBOL/DB2 keyword lists, known system names,
// and the fuzzy-matcher's domain synonym table. It is loaded once at
// package init and read only afterward, per Design Note 9 ("domain
// keyword lists and regex patterns... extract into a configuration
// resource loaded once; the text processor, parser, fuzzy matcher, and
// ranking engine all read it read-only").
package domain

import "regexp"

// ErrorCodePatterns matches mainframe completion codes, user abend
// codes, DB2 SQL codes, and CICS/IMS codes. Order does not matter;
// MatchesErrorCode reports true on the first pattern that matches.
var ErrorCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^S0[0-9A-F]{2}$`),          // system completion codes, e.g. S0C7, S0C4
	regexp.MustCompile(`(?i)^S[0-9A-F]{3}$`),           // general system completion codes
	regexp.MustCompile(`(?i)^U[0-9]{4}$`),               // user abend codes, e.g. U4038
	regexp.MustCompile(`(?i)^SQL-?[0-9]{3,5}[NW]?$`),    // DB2 SQL codes, e.g. SQL0803N
	regexp.MustCompile(`(?i)^DSN[A-Z][0-9]{3}[IWE]$`),   // DB2 subsystem messages
	regexp.MustCompile(`(?i)^AEI[A-Z]$`),                // CICS abend codes
	regexp.MustCompile(`(?i)^ASRA$|^AICA$|^ATCH$`),      // common CICS abends
	regexp.MustCompile(`(?i)^IEF[0-9]{3}[IWES]$`),       // JES/JCL messages
	regexp.MustCompile(`(?i)^IGZ[0-9]{4}[IWES]$`),       // COBOL runtime messages
	regexp.MustCompile(`(?i)^DFS[0-9]{3,4}[AIWE]$`),     // IMS messages
	regexp.MustCompile(`(?i)^WER[0-9]{3}[AIWE]$`),       // sort/utility messages
	regexp.MustCompile(`(?i)^VSAM STATUS [0-9]{1,2}$`),  // VSAM status codes (as a phrase)
}

// MatchesErrorCode reports whether token looks like a mainframe error
// or completion code.
func MatchesErrorCode(token string) bool {
	for _, p := range ErrorCodePatterns {
		if p.MatchString(token) {
			return true
		}
	}
	return false
}

// CodeKeywords are domain terms (JCL, VSAM, COBOL, DB2, CICS, IMS)
// classified as `code` tokens rather than plain words.
var CodeKeywords = buildSet([]string{
	"jcl", "dd", "exec", "pgm", "proc", "pend", "jobcard", "sysin", "sysout",
	"vsam", "ksds", "esds", "rrds", "lds", "catalog", "icf", "cluster",
	"cobol", "copybook", "paragraph", "perform", "working-storage", "linkage",
	"db2", "tablespace", "bufferpool", "cursor", "bind", "plan", "package",
	"cics", "transid", "commarea", "pseudoconversational", "ceda", "cemt",
	"ims", "psb", "dbd", "pcb", "segment", "dli",
	"racf", "tso", "ispf", "sdsf", "zos", "mvs",
})

// MainframeTerms are system-name style domain terms used by the
// custom ranking scorer's ×1.5 boost.
var MainframeTerms = buildSet([]string{
	"mainframe", "zos", "mvs", "vsam", "jcl", "cobol", "db2", "cics", "ims",
	"racf", "tso", "ispf", "sdsf", "dasd", "jes2", "jes3", "smf", "rmf",
})

// SystemNames are recognized subsystem/product names used by the
// custom ranking scorer's ×2.0 boost.
var SystemNames = buildSet([]string{
	"db2", "cics", "ims", "racf", "tso", "ispf", "sdsf", "jes2", "jes3",
	"vsam", "vtam", "rmf", "smf", "dfsms", "dfhsm",
})

// SynonymTable lists short-circuit "are variants" aliases for the
// fuzzy matcher's domain-variant check, e.g. abend <-> error/fail/abort.
var SynonymTable = map[string][]string{
	"abend":   {"error", "fail", "failure", "abort", "crash"},
	"dsn":     {"dataset", "name", "datasetname"},
	"dasd":    {"disk", "storage", "volume"},
	"jcl":     {"job", "script", "batch"},
	"vsam":    {"file", "dataset", "cluster"},
	"sysout":  {"output", "spool", "print"},
	"sysin":   {"input", "stdin"},
	"catlg":   {"catalog", "cataloged"},
	"uncatlg": {"uncatalog", "uncataloged"},
	"tsq":     {"tempstorage", "queue"},
	"commarea": {"communication", "area"},
}

// AreListedVariants reports whether b appears in a's synonym list or
// vice versa (the table is intentionally not symmetric in storage, so
// both directions are checked).
func AreListedVariants(a, b string) bool {
	for _, syn := range SynonymTable[a] {
		if syn == b {
			return true
		}
	}
	for _, syn := range SynonymTable[b] {
		if syn == a {
			return true
		}
	}
	return false
}

// StopWords are dropped from TextProcessor output when enabled,
// grounded on the teacher's universalIndex stop list, extended with a
// few mainframe-writeup connectives.
var StopWords = buildSet([]string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "is", "are", "was", "were", "be", "been", "have", "has",
	"had", "do", "does", "did", "will", "would", "could", "should", "this",
	"that", "these", "those", "it", "its", "you", "your", "all", "any",
	"can", "from", "not", "no", "if", "when", "where", "how", "what",
	"which", "who", "why", "use", "used", "using", "then", "also",
})

func buildSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
