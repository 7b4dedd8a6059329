package news

// DigestJob is one unit of work for the digest worker: a batch of headlines
// from a single source, to be summarized into a CurrentAffair record.
type DigestJob struct {
	Category string    `json:"category"`
	Articles []Article `json:"articles"`
}
