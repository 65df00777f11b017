package io

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/okapidata/okapi/internal/dataset"
)

// Read reads an Arrow IPC stream and returns a Dataset. The stream's
// record batch boundaries become the dataset's batch boundaries.
func (r *IPCReader) Read() (*dataset.Dataset, error) {
	ipcReader, err := ipc.NewReader(r.reader,
		ipc.WithAllocator(r.mem),
		ipc.WithEnsureNativeEndian(true))
	if err != nil {
		return nil, fmt.Errorf("creating IPC reader: %w", err)
	}
	defer ipcReader.Release()

	var records []arrow.Record
	for ipcReader.Next() {
		rec := ipcReader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	if err := ipcReader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading IPC stream: %w", err)
	}

	return dataset.New(records...)
}

// Write writes the Dataset as an Arrow IPC stream, one IPC message
// per stored batch.
func (w *IPCWriter) Write(ds *dataset.Dataset) error {
	schema := ds.Schema()
	if schema == nil {
		return fmt.Errorf("writing IPC stream: dataset has no schema")
	}

	ipcWriter := ipc.NewWriter(w.writer,
		ipc.WithSchema(schema),
		ipc.WithAllocator(w.mem),
		ipc.WithDictionaryDeltas(true))

	for i := 0; i < ds.NumBatches(); i++ {
		rec, err := ds.Record(i)
		if err != nil {
			ipcWriter.Close()
			return fmt.Errorf("writing IPC stream: %w", err)
		}
		err = ipcWriter.Write(rec)
		rec.Release()
		if err != nil {
			ipcWriter.Close()
			return fmt.Errorf("writing batch %d: %w", i, err)
		}
	}

	if err := ipcWriter.Close(); err != nil {
		return fmt.Errorf("closing IPC writer: %w", err)
	}
	return nil
}
