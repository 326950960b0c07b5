package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-cidutil/cidenc"

	"github.com/banyancomputer/banyan-client/backend"
	"github.com/banyancomputer/banyan-client/chain"
	"github.com/banyancomputer/banyan-client/cli/tablewriter"
	"github.com/banyancomputer/banyan-client/types"
)

func entryStateString(state types.EntryState) string {
	s := state.String()
	switch state {
	case types.EntryStageFailed, types.EntrySubmitFailed, types.EntryPersistFailed:
		return color.RedString(s)
	case types.EntrySubmitAmbiguous, types.EntryStaging, types.EntrySubmitting:
		return color.YellowString(s)
	case types.EntryRecorded:
		return color.GreenString(s)
	default:
		return s
	}
}

func dealStatusString(status types.DealStatus) string {
	s := status.String()
	switch status {
	case types.DealStatusCancelled, types.DealStatusTimedOut:
		return color.RedString(s)
	case types.DealStatusFinalized:
		return color.GreenString(s)
	case types.DealStatusActive, types.DealStatusCompleted, types.DealStatusFinalizing:
		return color.CyanString(s)
	default:
		return s
	}
}

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// printer renders entries, deals and content for the terminal.
type printer struct {
	tokens  chain.TokenBook
	cids    cidenc.Encoder
	verbose bool
}

// cid re-encodes a content id with the selected multibase. Anything that
// does not parse as a cid is printed as is.
func (p *printer) cid(s string) string {
	c, err := cid.Decode(s)
	if err != nil {
		return s
	}
	return p.cids.Encode(c)
}

func (p *printer) amount(v types.TokenAmount, denomination string) string {
	return formatAmount(v, denomination, p.tokens)
}

func (p *printer) entries(out io.Writer, entries []*types.Entry) error {
	w := tablewriter.New(
		tablewriter.Col("ID"),
		tablewriter.Col("File"),
		tablewriter.Col("Size"),
		tablewriter.Col("State"),
		tablewriter.Col("Deal"),
		tablewriter.Col("Bounty"),
		tablewriter.Col("Created"),
		tablewriter.NewLineCol("Message"))
	for _, e := range entries {
		id := e.ID
		if !p.verbose {
			id = shortID(id)
		}
		row := map[string]interface{}{
			"ID":      id,
			"File":    e.FileName,
			"Size":    units.BytesSize(float64(e.FileSize)),
			"State":   entryStateString(e.State),
			"Bounty":  p.amount(e.Proposal.Bounty, e.Proposal.TokenDenomination),
			"Created": e.CreatedAt.Format(time.DateTime),
		}
		if e.State.HasDeal() && e.DealID != 0 {
			row["Deal"] = e.DealID
		}
		if e.Message != "" {
			row["Message"] = e.Message
		}
		w.Write(row)
	}
	return w.Flush(out)
}

func (p *printer) entry(out io.Writer, e *types.Entry) error {
	prop := e.Proposal
	fmt.Fprintf(out, "ID:          %s\n", e.ID)
	fmt.Fprintf(out, "File:        %s (%s)\n", e.FilePath, units.BytesSize(float64(e.FileSize)))
	fmt.Fprintf(out, "State:       %s\n", entryStateString(e.State))
	if e.DealID != 0 {
		fmt.Fprintf(out, "Deal:        %s\n", e.DealID)
	}
	if e.TxHash != "" {
		fmt.Fprintf(out, "Tx:          %s\n", e.TxHash)
	}
	if e.Staging != nil {
		fmt.Fprintf(out, "Content:     %s\n", p.cid(e.Staging.ContentID))
		fmt.Fprintf(out, "Hash:        %s\n", e.Staging.IntegrityHash)
		fmt.Fprintf(out, "Staging ID:  %s\n", e.Staging.StagingID)
	}
	fmt.Fprintf(out, "Executor:    %s\n", prop.ExecutorAddress)
	fmt.Fprintf(out, "Length:      %d blocks, proof every %d blocks\n", prop.DealLengthInBlocks, prop.ProofFrequencyInBlocks)
	fmt.Fprintf(out, "Bounty:      %s\n", p.amount(prop.Bounty, prop.TokenDenomination))
	fmt.Fprintf(out, "Collateral:  %s\n", p.amount(prop.Collateral, prop.TokenDenomination))
	if e.Message != "" {
		fmt.Fprintf(out, "Message:     %s\n", e.Message)
	}
	fmt.Fprintf(out, "Updated:     %s\n", e.UpdatedAt.Format(time.RFC3339))
	return nil
}

func (p *printer) deal(out io.Writer, d *types.Deal) error {
	fmt.Fprintf(out, "Deal:        %s\n", d.ID)
	fmt.Fprintf(out, "Status:      %s\n", dealStatusString(d.Status))
	fmt.Fprintf(out, "Creator:     %s\n", d.CreatorAddress)
	fmt.Fprintf(out, "Executor:    %s\n", d.ExecutorAddress)
	fmt.Fprintf(out, "Start:       block %d, %d blocks, proof every %d blocks\n", d.DealStartBlock, d.DealLengthInBlocks, d.ProofFrequencyInBlocks)
	fmt.Fprintf(out, "Bounty:      %s\n", p.amount(d.Bounty, d.TokenDenomination))
	fmt.Fprintf(out, "Collateral:  %s\n", p.amount(d.Collateral, d.TokenDenomination))
	fmt.Fprintf(out, "Size:        %s\n", units.BytesSize(float64(d.FileSize)))
	fmt.Fprintf(out, "Content:     %s\n", p.cid(d.ContentID))
	fmt.Fprintf(out, "Hash:        %s\n", d.IntegrityHash)
	return nil
}

func (p *printer) pinStatus(out io.Writer, st *backend.PinStatus) {
	status := st.Status
	if st.Pinned() {
		status = color.GreenString(status)
	}
	fmt.Fprintf(out, "%s  %s  %s\n", st.RequestID, p.cid(st.Pin.Cid), status)
}

func (p *printer) content(out io.Writer, stats []backend.ContentStat) error {
	w := tablewriter.New(
		tablewriter.Col("ID"),
		tablewriter.Col("Cid"),
		tablewriter.Col("File"),
		tablewriter.Col("Deal"))
	for _, s := range stats {
		c := p.cid(s.Cid)
		if !p.verbose {
			c = ellipsis(c, 16)
		}
		w.Write(map[string]interface{}{
			"ID":   s.ID,
			"Cid":  c,
			"File": s.Filename,
			"Deal": s.DealID,
		})
	}
	return w.Flush(out)
}

// formatAmount prints base units in whole tokens when the denomination is a
// known token, and raw base units otherwise.
func formatAmount(v types.TokenAmount, denomination string, tokens chain.TokenBook) string {
	if v.Nil() {
		return "0"
	}
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, denomination) || (common.IsHexAddress(denomination) && t.Address == common.HexToAddress(denomination)) {
			return types.FormatTokenAmount(v, t.Decimals) + " " + t.Symbol
		}
	}
	return strings.TrimSpace(v.String() + " " + denomination)
}
