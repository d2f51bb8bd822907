package vo

import "time"

type Bucket struct {
	Name string
	From time.Duration
	To   time.Duration
}

type BucketList []Bucket

// GetBucketList visit durations, a visit includes stability waits and every tab
func GetBucketList() BucketList {
	return BucketList{
		Bucket{
			Name: "snappy",
			From: 0,
			To:   time.Second * 2,
		},
		Bucket{
			Name: "ok",
			From: time.Second * 2,
			To:   time.Second * 5,
		},
		Bucket{
			Name: "slow, probably fell back after network idle",
			From: time.Second * 5,
			To:   time.Second * 12,
		},
		Bucket{
			Name: "tabs everywhere or really slow",
			From: time.Second * 12,
			To:   time.Second * 30,
		},
		Bucket{
			Name: "something hangs",
			From: time.Second * 30,
			To:   time.Hour,
		},
	}
}

func (bl BucketList) Find(d time.Duration) (b Bucket, ok bool) {
	for _, b := range bl {
		if d >= b.From && d < b.To {
			return b, true
		}
	}
	return Bucket{}, false
}
