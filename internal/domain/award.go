package domain

// PageRecord is a single retrieved web page. Pages arrive from the external
// retrieval collaborator already materialized; Text may be empty.
type PageRecord struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Winner is one awarded organization reported by an extraction path.
// Amount keeps the textual unit of the source ("1,200,000,000원"); empty
// means no amount was found.
type Winner struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
}

// ExtractionResult is the per-page (or per-chunk) outcome of either
// extraction path. Winner names are already validated and deduplicated.
type ExtractionResult struct {
	Winners []Winner `json:"winners"`
	Reasons []string `json:"reasons"`
	Agency  string   `json:"agency"`
}

// TopWinner is a ranked aggregate over winner mentions.
type TopWinner struct {
	Name      string   `json:"name"`
	Wins      int      `json:"wins"`
	AvgAmount *float64 `json:"avgAmount"`
}

// ReasonFreq ranks a justification phrase by how often pages reported it.
type ReasonFreq struct {
	Reason string `json:"reason"`
	Freq   int    `json:"freq"`
}

// AgencyFreq ranks a contracting agency by page votes.
type AgencyFreq struct {
	Name string `json:"name"`
	Freq int    `json:"freq"`
}

// AggregateSignals is recomputed in full on every aggregation call.
type AggregateSignals struct {
	TopWinners []TopWinner  `json:"topWinners"`
	TopReasons []ReasonFreq `json:"topReasons"`
	Agencies   []AgencyFreq `json:"agencies"`
}

// WinnerCount is the legacy top-5 winner view kept for older consumers.
type WinnerCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// EvidenceItem points back at a contributing page.
type EvidenceItem struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
}

// ScoreCard is reserved in the payload contract and always null-valued.
type ScoreCard struct {
	Tech  *float64 `json:"tech"`
	Price *float64 `json:"price"`
	Total *float64 `json:"total"`
}

// AwardSnapshot is the final payload of a single extraction query.
// Note is set only when the probabilistic path is entirely absent.
type AwardSnapshot struct {
	Query     string           `json:"query"`
	Winners   []WinnerCount    `json:"winners"`
	Signals   AggregateSignals `json:"signals"`
	Evidences []EvidenceItem   `json:"evidences"`
	Score     ScoreCard        `json:"score"`
	Note      string           `json:"note,omitempty"`
}

// Award is one award notice recovered by the lightweight intel path.
type Award struct {
	NoticeID  string   `json:"noticeId"`
	Title     string   `json:"title"`
	Agency    string   `json:"agency"`
	Winner    string   `json:"winner"`
	Amount    *float64 `json:"amount"`
	OpenDate  string   `json:"openDate,omitempty"`
	TopicTags []string `json:"topicTags"`
	URL       string   `json:"url"`
}

// MarketLandscape carries the bounded competitiveness signal.
type MarketLandscape struct {
	CCI   float64 `json:"cci"`
	Query string  `json:"query"`
}

// CompetitorIntel is the parallel market summary built from the
// deterministic path only.
type CompetitorIntel struct {
	TopCompetitors  []TopWinner     `json:"topCompetitors"`
	MarketLandscape MarketLandscape `json:"marketLandscape"`
	Evidences       []EvidenceItem  `json:"evidences"`
}
