// Copyright 2026 DecentraMind Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import "github.com/shopspring/decimal"

// Summary holds aggregate governance metrics
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	// ParticipationRate is the average share of circulating supply that voted on decided proposals
	ParticipationRate decimal.Decimal `json:"participationRate"`
	// SuccessRate is the share of decided proposals that passed
	SuccessRate decimal.Decimal `json:"successRate"`
}

// Summarize computes the governance metrics over a set of proposals
func Summarize(proposals []Proposal, supply decimal.Decimal) Summary {
	ret := Summary{
		Total:             len(proposals),
		ByStatus:          make(map[Status]int, len(Statuses)),
		ParticipationRate: decimal.Zero,
		SuccessRate:       decimal.Zero,
	}
	for _, s := range Statuses {
		ret.ByStatus[s] = 0
	}
	decided := 0
	weight := decimal.Zero
	for _, p := range proposals {
		ret.ByStatus[p.Status]++
		if p.Status.Decided() {
			decided++
			weight = weight.Add(p.Tally.Total)
		}
	}
	if decided > 0 && supply.IsPositive() {
		ret.ParticipationRate = weight.Div(supply.Mul(decimal.NewFromInt(int64(decided))))
	}
	succeeded := ret.ByStatus[StatusPassed] + ret.ByStatus[StatusExecuted]
	if closed := succeeded + ret.ByStatus[StatusFailed]; closed > 0 {
		ret.SuccessRate = decimal.NewFromInt(int64(succeeded)).
			Div(decimal.NewFromInt(int64(closed)))
	}
	return ret
}
