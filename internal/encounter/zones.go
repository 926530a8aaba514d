package encounter

// ZoneInfo identifies the zone an encounter takes place in.
type ZoneInfo struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
}

// zoneRing remembers the most recent zones, newest last.
type zoneRing struct {
	buf  []ZoneInfo
	next int
	n    int
}

func newZoneRing(size int) *zoneRing {
	if size < 1 {
		size = 1
	}
	return &zoneRing{buf: make([]ZoneInfo, size)}
}

func (r *zoneRing) push(z ZoneInfo) {
	r.buf[r.next] = z
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// last returns the most recently pushed zone.
func (r *zoneRing) last() (ZoneInfo, bool) {
	if r.n == 0 {
		return ZoneInfo{}, false
	}
	return r.buf[(r.next-1+len(r.buf))%len(r.buf)], true
}

// recent returns the remembered zones, newest first.
func (r *zoneRing) recent() []ZoneInfo {
	out := make([]ZoneInfo, 0, r.n)
	for i := 1; i <= r.n; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	return out
}
