package model

// AppSuffix is appended to a prefix to address the stats application on a peer.
const AppSuffix = "/ndnmap/stats"

// Request asks the peer behind Prefix for the counters of every listed address.
type Request struct {
	Prefix    string
	Addresses []string
}

// Name is the full request name: prefix, app suffix, then one component per address.
func (r Request) Name() string {
	name := r.Prefix + AppSuffix
	for _, a := range r.Addresses {
		name += "/" + a
	}
	return name
}

// StatusEntry is one link's counters inside a reply.
type StatusEntry struct {
	Address   string `json:"ip"`
	TxBytes   uint64 `json:"tx"`
	RxBytes   uint64 `json:"rx"`
	Timestamp string `json:"timestamp"`
}

// Reply is the decoded body of a batched response.
type Reply struct {
	Links []StatusEntry `json:"links"`
}
