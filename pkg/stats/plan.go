package stats

// Batch size tiers exposed by the provider. The bulk endpoint returns up to
// 1000 posts per call; the standard wall endpoint is capped at 100. Liker
// lookups go through a micro-batch endpoint taking up to 25 post ids, a
// 10-id tier, and a per-post fallback.
const (
	BulkTier     = 1000
	StandardTier = 100

	MicroBatchTier = 25
	TenTier        = 10

	// UsersChunk is the provider's documented users.get batch limit.
	UsersChunk = 1000
)

// PostPlan decomposes a target post count into an ordered sequence of batch
// sizes, largest tier first: full bulk batches, then standard batches with
// the last one partial. The sizes sum to exactly n, minimizing the call
// count for the two available tiers.
func PostPlan(n int) []int {
	if n <= 0 {
		return nil
	}

	var plan []int
	for i := 0; i < n/BulkTier; i++ {
		plan = append(plan, BulkTier)
	}

	remainder := n % BulkTier
	for i := 0; i < remainder/StandardTier; i++ {
		plan = append(plan, StandardTier)
	}
	if tail := remainder % StandardTier; tail > 0 {
		plan = append(plan, tail)
	}
	return plan
}

// LikerPlan decomposes a post-id count into micro-batch sizes: full 25-id
// batches, then full 10-id batches, then single-id lookups. The sizes sum
// to exactly n.
func LikerPlan(n int) []int {
	if n <= 0 {
		return nil
	}

	var plan []int
	for i := 0; i < n/MicroBatchTier; i++ {
		plan = append(plan, MicroBatchTier)
	}

	remainder := n % MicroBatchTier
	for i := 0; i < remainder/TenTier; i++ {
		plan = append(plan, TenTier)
	}
	for i := 0; i < remainder%TenTier; i++ {
		plan = append(plan, 1)
	}
	return plan
}
