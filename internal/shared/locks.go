package shared

import "fmt"

// WorkshopBranchLockKey guards creation of the singleton workshop branch.
func WorkshopBranchLockKey() string {
	return "kassa:branch:workshop:lock"
}

// BranchStockVersionKey holds the cache generation of a branch stock listing.
func BranchStockVersionKey(branchID int64) string {
	return fmt.Sprintf("kassa:stock:branch:%d:version", branchID)
}

// BranchStockCacheKey builds the redis key of one cached branch stock listing.
func BranchStockCacheKey(branchID, version int64, search string) string {
	return fmt.Sprintf("kassa:stock:branch:%d:v%d:%s", branchID, version, search)
}
