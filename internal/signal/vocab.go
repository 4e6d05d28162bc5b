package signal

// Fixed vocabularies for the keyword-driven extractor. Matching is
// case-insensitive substring; entries are stored in display case and
// lowercased at match time.

var companyVocab = []string{
	"Google", "Microsoft", "Apple", "Amazon", "Meta", "Netflix",
	"Tesla", "OpenAI", "Anthropic", "Nvidia", "Salesforce", "Stripe",
	"LinkedIn", "Airbnb", "Uber", "Spotify",
}

var technologyVocab = []string{
	"AI", "machine learning", "blockchain", "cloud", "kubernetes",
	"python", "javascript", "golang", "react", "data science",
	"cybersecurity", "devops", "SaaS", "API",
}

// relatedConnectionPool seeds the related-connections field of synergy
// records until real graph lookups exist.
var relatedConnectionPool = []string{
	"Sarah Chen", "Marcus Johnson", "Elena Rodriguez",
	"David Park", "Aisha Patel", "Tom Weaver",
}

var topicKeywords = map[string][]string{
	"networking":    {"network", "connect", "introduction", "meet", "contact"},
	"business":      {"business", "revenue", "market", "sales", "customer", "deal"},
	"technology":    {"tech", "software", "ai", "platform", "engineering", "product"},
	"collaboration": {"collaborat", "partner", "together", "team", "joint"},
	"opportunities": {"opportunit", "potential", "growth", "invest", "funding"},
}

// topicOrder keeps Topics output deterministic regardless of map
// iteration order.
var topicOrder = []string{
	"networking", "business", "technology", "collaboration", "opportunities",
}

var positiveKeywords = []string{
	"great", "excellent", "amazing", "good", "love", "excited",
	"fantastic", "wonderful", "happy", "perfect", "awesome", "interested",
}

var negativeKeywords = []string{
	"bad", "terrible", "awful", "hate", "disappointed", "problem",
	"difficult", "worried", "concerned", "wrong", "fail", "frustrat",
}

// Synergy trigger parameters. Values in dollars, confidence in [0,1).
const (
	startupSynergyTitle   = "Startup collaboration"
	startupValueMin       = 250000.0
	startupValueMax       = 750000.0
	startupConfidenceMin  = 0.8
	startupConfidenceMax  = 1.0
	aiSynergyTitle        = "AI venture alignment"
	aiValueMin            = 180000.0
	aiValueMax            = 500000.0
	aiConfidenceMin       = 0.7
	aiConfidenceMax       = 1.0
)
