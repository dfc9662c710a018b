package quality

import "strings"

// vagueHeaders name columns whose values describe the cited work itself
// (where and when it appeared, where its code lives) rather than anything
// the table compares.
var vagueHeaders = func() map[string]bool {
	m := make(map[string]bool)
	for _, h := range []string{
		"Venue",
		"Month",
		"Year",
		"No.",
		"[HTML]D0CECE\\nYear",
		"Title",
		"URL",
		"[HTML]BBDAFFYear",
		"Link",
		"Version",
		"Organiser",
		"Citations",
		"Pub.",
		"Title of Survey Article",
		"License",
		"Publication",
		"Repositories",
		"Code repository",
		"First author",
		"Paper Title",
		"Published In",
		"Team affiliations",
		"Google Scholar citations (as of June 2022)",
		"Publi. year",
		"Article",
		"Reference",
		"Years",
		"Journal",
		"Conference",
		"Stars / Citations",
		"Papers",
		"Authors [Ref]",
		"Publication& Year",
		"HuggingFace Repository Name",
		"Available Link",
		"Access Date",
		"Ref.",
		"# Cit.",
		"Public Code",
		"Published in",
		"Year/Month",
		"Authors",
		"Book Title",
		"#",
		"Link to the code",
		"Titles",
		"Link of the corpus",
		"Code Repository",
		"ID",
		"year",
		"Publication year",
		"NO.",
		"Where",
		"When",
		"Github Link",
		"Project Page",
		"First Author",
		"Implementation",
		"Venue Name",
		"Publication Year/Type",
		"Affiliation",
		"Webpage",
		"Code Link",
		"Publisher",
		"Commit",
		"Title of articles",
		"References count",
		"Researchers",
		"No. of papers",
		"Github",
		"Ref., Year",
		"Publicly Available Repository (Data or Code)",
		"license",
		"Conference/Journal",
		"Abstract",
	} {
		m[h] = true
	}
	return m
}()

// IsVague reports whether a column header is on the vague-header list.
func IsVague(header string) bool {
	return vagueHeaders[strings.TrimSpace(header)]
}
