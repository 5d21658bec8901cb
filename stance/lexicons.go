package stance

// Fixed lexicons for the local stance/bias heuristic. Matching happens at
// word granularity except the statement cues, which match per sentence.

var positiveWords = []string{
	"good", "great", "excellent", "positive", "success", "successful",
	"win", "won", "improve", "improved", "improving", "growth",
	"benefit", "beneficial", "strong", "hope", "hopeful", "progress",
	"achievement", "support", "praise", "prosperous", "thriving",
}

var negativeWords = []string{
	"bad", "poor", "terrible", "negative", "failure", "failed",
	"lose", "lost", "loss", "decline", "declining", "crisis",
	"threat", "weak", "fear", "concern", "problem", "risk",
	"damage", "criticize", "collapse", "scandal", "disaster",
}

var emotionalWords = []string{
	"outrage", "outraged", "fury", "furious", "devastating", "devastated",
	"shocking", "shocked", "horrific", "horrified", "thrilled",
	"terrifying", "terrified", "alarming", "alarmed", "stunning",
	"heartbreaking", "tragic", "disgraceful", "appalling", "incredible",
}

var strongOpinionAdverbs = []string{
	"clearly", "obviously", "undoubtedly", "certainly", "absolutely",
	"definitely", "surely", "unquestionably", "frankly", "honestly",
	"utterly", "completely", "totally", "entirely", "undeniably",
}

var leftLeaningTerms = []string{
	"progressive", "social justice", "climate crisis", "universal healthcare",
	"wealth inequality", "systemic racism", "gun control", "workers' rights",
	"living wage", "reproductive rights", "green new deal", "undocumented",
}

var rightLeaningTerms = []string{
	"conservative", "traditional values", "law and order", "free market",
	"border security", "second amendment", "small government", "tax relief",
	"family values", "illegal aliens", "pro-life", "deregulation",
}

var factualCues = []string{
	"according to", "data shows", "statistics show", "the report found",
	"researchers found", "the study found", "figures show", "records show",
	"officials said", "confirmed that", "announced that", "the numbers",
}

var subjectiveCues = []string{
	"i think", "i believe", "in my opinion", "it seems", "arguably",
	"many believe", "critics say", "some argue", "one could say",
	"it appears", "presumably", "supposedly", "should be", "must be",
}
