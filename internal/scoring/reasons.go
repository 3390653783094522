package scoring

// bandReasons holds the explanation for each score band: >=80, >=60, >=40, below
type bandReasons [4]string

func (b bandReasons) pick(score int) string {
	switch {
	case score >= 80:
		return b[0]
	case score >= 60:
		return b[1]
	case score >= 40:
		return b[2]
	default:
		return b[3]
	}
}

var keywordReasons = bandReasons{
	"Resume covers most of the job's keywords.",
	"Resume covers many of the job's keywords; a few important ones are missing.",
	"Resume misses a significant share of the job's keywords.",
	"Resume matches few of the job's keywords.",
}

var contentReasons = bandReasons{
	"Experience is highly relevant to the role.",
	"Experience is mostly relevant to the role.",
	"Experience is partly relevant to the role.",
	"Experience shows little relevance to the role.",
}

var quantificationReasons = bandReasons{
	"Most bullets show measurable impact.",
	"Many bullets show measurable impact; more numbers would help.",
	"Few bullets show measurable impact.",
	"Bullets rarely quantify results.",
}

var formatReasons = bandReasons{
	"Layout and structure are ATS-friendly.",
	"Structure is mostly ATS-friendly with minor issues.",
	"Structure has issues that may confuse ATS parsers.",
	"Structure is likely to be misread by ATS parsers.",
}

var skillsReasons = bandReasons{
	"Listed skills cover the role's requirements.",
	"Listed skills cover most of the role's requirements.",
	"Several required skills are not listed.",
	"Most required skills are not listed.",
}
