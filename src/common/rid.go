package common

import "fmt"

// RID locates one record: a page and a slot inside it.
type RID struct {
	PageId  PageId
	SlotNum int
}

func (rid *RID) String() string {
	return fmt.Sprintf("[Page id %s, slot num %d]", rid.PageId, rid.SlotNum)
}
