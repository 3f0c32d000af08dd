package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchMarshal(t *testing.T) {
	t.Parallel()

	batch := Batch{
		Header: BatchHeader{
			CommanderName:       "Norman Jayden",
			CommanderFrontierID: "F123",
			Version:             "2.0.0",
		},
		Events: []ReportRecord{
			{
				EventName:      "addCommanderTravelDock",
				EventTimestamp: "2026-08-30T12:00:00Z",
				EventData: Payload{
					{"starsystemName", "Shinrarta Dezhra"},
					{"stationName", "Jameson Memorial"},
				},
			},
		},
	}

	data, err := json.Marshal(batch)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"header": {"commanderName":"Norman Jayden","commanderFrontierID":"F123","version":"2.0.0"},
		"events": [{
			"eventName":"addCommanderTravelDock",
			"eventTimestamp":"2026-08-30T12:00:00Z",
			"eventData":{"starsystemName":"Shinrarta Dezhra","stationName":"Jameson Memorial"}
		}]
	}`, string(data))
}

func TestReportRecordUnmarshalKeepsDataOrder(t *testing.T) {
	t.Parallel()

	raw := `{"eventName":"setCommanderShip","eventTimestamp":"t","eventData":{"shipType":"anaconda","shipGameID":9}}`

	var r ReportRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
	assert.Equal(t, int64(9), r.DataShipID())
}

func TestReplyUnmarshal(t *testing.T) {
	t.Parallel()

	raw := `{
		"header": {"eventStatus": 200},
		"events": [
			{"eventStatus": 200, "eventData": {"starsystemInaraURL": "https://example.test/s/1"}},
			{"eventStatus": 400, "eventStatusText": "unknown ship"}
		]
	}`

	var reply Reply
	require.NoError(t, json.Unmarshal([]byte(raw), &reply))

	require.Len(t, reply.Events, 2)
	assert.Equal(t, 200, reply.Header.EventStatus)
	assert.Equal(t, "https://example.test/s/1", reply.Events[0].EventData["starsystemInaraURL"])
	assert.Equal(t, "unknown ship", reply.Events[1].EventStatusText)
}

func TestStatusOK(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusOK(200))
	assert.True(t, StatusOK(204))
	assert.False(t, StatusOK(199))
	assert.False(t, StatusOK(400))
	assert.False(t, StatusOK(500))
}

func TestReportKinds(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLocationReport("addCommanderTravelDock"))
	assert.True(t, IsLocationReport("addCommanderTravelFSDJump"))
	assert.True(t, IsLocationReport("setCommanderTravelLocation"))
	assert.False(t, IsLocationReport("setCommanderShip"))

	assert.True(t, IsShipReport("addCommanderShip"))
	assert.True(t, IsShipReport("setCommanderShip"))
	assert.False(t, IsShipReport("setCommanderShipLoadout"))
}
